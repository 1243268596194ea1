package logging

import "time"

const componentKey = "component"

func String(key, value string) Field          { return Field{Key: key, Value: value} }
func Int(key string, value int) Field         { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field     { return Field{Key: key, Value: value} }
func Uint64(key string, value uint64) Field   { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field       { return Field{Key: key, Value: value} }
func Any(key string, value any) Field         { return Field{Key: key, Value: value} }

// Duration is rendered with time.Duration.String.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Error records err's message under "error"; a nil error records null.
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Component is promoted to the entry's top-level component.
func Component(name string) Field { return String(componentKey, name) }

func NodeID(id string) Field        { return String("node_id", id) }
func RequestID(id string) Field     { return String("request_id", id) }
func Operation(op string) Field     { return String("operation", op) }
func Path(p string) Field           { return String("path", p) }
func Count(n int) Field             { return Int("count", n) }
func Latency(d time.Duration) Field { return Duration("latency", d) }

// Tier and LinkType take plain strings so this package stays free of domain
// imports.
func Tier(tier string) Field   { return String("tier", tier) }
func LinkType(lt string) Field { return String("link_type", lt) }
