package buildpipeline

import "go.uber.org/zap"

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// LogSink writes pipeline-level events to a logger.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) OnEvent(evt Event) {
	if s.Logger == nil || evt.File != "" {
		return
	}
	fields := []zap.Field{
		zap.String("stage", string(evt.Stage)),
		zap.String("status", string(evt.Status)),
	}
	if evt.Elapsed > 0 {
		fields = append(fields, zap.Duration("elapsed", evt.Elapsed))
	}
	if evt.Err != nil {
		s.Logger.Error("stage failed", append(fields, zap.Error(evt.Err))...)
		return
	}
	s.Logger.Debug("stage", fields...)
}

// multiSink fans events out to several sinks.
type multiSink []ProgressSink

func (m multiSink) OnEvent(evt Event) {
	for _, s := range m {
		if s != nil {
			s.OnEvent(evt)
		}
	}
}
