package cache

// JSON protocol for the cache daemon over a Unix domain socket. A connection
// carries a stream of request/response pairs encoded with json.Encoder and
// json.Decoder. TTL policy is owned by the daemon's store, so requests carry
// no expiry of their own.

type Request struct {
	Op    string   `json:"op"` // "get" | "set" | "delete" | "clear"
	Key   string   `json:"key,omitempty"`
	Keys  []string `json:"keys,omitempty"` // delete only
	Value []byte   `json:"value,omitempty"`
}

type Response struct {
	OK    bool   `json:"ok"`
	Found bool   `json:"found,omitempty"` // get only: distinguishes miss from failure
	Value []byte `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}
