package main

import (
	"fmt"
	"io"
	"time"

	"sdslbind/internal/buildpipeline"
)

var timedStages = []struct {
	stage buildpipeline.Stage
	verb  string
}{
	{buildpipeline.StageDiscover, "discovered"},
	{buildpipeline.StageAnalyse, "analysed"},
	{buildpipeline.StageMaterialize, "materialized"},
	{buildpipeline.StageCompile, "compiled"},
}

func printStageTimings(out io.Writer, timings buildpipeline.Timings) error {
	if out == nil {
		return nil
	}
	for _, ts := range timedStages {
		if !timings.Has(ts.stage) {
			continue
		}
		if _, err := fmt.Fprintf(out, "%s %.1f ms\n", ts.verb, toMillis(timings.Duration(ts.stage))); err != nil {
			return err
		}
	}
	return nil
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
