package logging

import "time"

func String(key, value string) Field    { return Field{Key: key, Value: value} }
func Int(key string, value int) Field   { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }
func Any(key string, value any) Field   { return Field{Key: key, Value: value} }

// Duration is logged in milliseconds under key+"_ms" so log pipelines can
// aggregate it without parsing Go duration strings.
func Duration(key string, d time.Duration) Field {
	return Field{Key: key + "_ms", Value: float64(d.Microseconds()) / 1000}
}

// Strings copies values; the caller may reuse its slice.
func Strings(key string, values []string) Field {
	return Field{Key: key, Value: append([]string(nil), values...)}
}

// Error logs err's message under "error". A nil error logs null.
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error"}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Domain keys. Keeping them here keeps the same concept under the same key
// in every component.

func Component(name string) Field { return String("component", name) }
func Word(w string) Field         { return String("word", w) }
func Peer(addr string) Field      { return String("peer", addr) }
func Peers(addrs []string) Field  { return Strings("peers", addrs) }
func BatchID(id string) Field     { return String("batch_id", id) }
func RequestID(id string) Field   { return String("request_id", id) }
func Path(p string) Field         { return String("path", p) }
func Count(n int) Field           { return Int("count", n) }
func Latency(d time.Duration) Field {
	return Duration("latency", d)
}
