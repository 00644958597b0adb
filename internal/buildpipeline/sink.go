package buildpipeline

import "time"

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

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(evt Event) {
	if f != nil {
		f(evt)
	}
}

func emit(sink ProgressSink, project string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Project: project, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}

func emitModule(sink ProgressSink, project string, stage Stage, module string) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Project: project, Stage: stage, Status: StatusWorking, Module: module})
}
