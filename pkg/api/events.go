package api

import (
	"github.com/dd0wney/stratnet/pkg/catalog"
	"github.com/dd0wney/stratnet/pkg/engine"
	"github.com/dd0wney/stratnet/pkg/pubsub"
	"github.com/dd0wney/stratnet/pkg/visualization"
)

// EngineCallbacks publishes node selections and path updates on bus. The
// callbacks run on the controller goroutine; Publish never blocks.
func EngineCallbacks(bus *pubsub.PubSub) engine.Callbacks {
	return engine.Callbacks{
		OnNodeSelect: func(n catalog.Node) {
			bus.Publish(pubsub.TopicNodeSelected, n)
		},
		OnPathUpdate: func(path []catalog.Node) {
			bus.Publish(pubsub.TopicPathUpdated, path)
		},
	}
}

// FramePublisher returns an OnFrame hook that publishes every frame.
func FramePublisher(bus *pubsub.PubSub) func(visualization.Frame) {
	return func(f visualization.Frame) {
		bus.Publish(pubsub.TopicFrame, f)
	}
}
