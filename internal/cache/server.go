package cache

import (
	"encoding/json"
	"net"
)

// Serve accepts daemon connections on l and answers protocol requests
// against kv. It blocks until the listener is closed.
func Serve(l net.Listener, kv KV) {
	for {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		go HandleConn(conn, kv)
	}
}

// HandleConn answers requests on a single connection until the peer
// disconnects or sends malformed JSON.
func HandleConn(conn net.Conn, kv KV) {
	defer conn.Close()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)
	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			return
		}
		switch req.Op {
		case "get":
			v, found := kv.Get(req.Key)
			_ = enc.Encode(Response{OK: true, Found: found, Value: v})
		case "set":
			kv.Set(req.Key, req.Value)
			_ = enc.Encode(Response{OK: true})
		case "delete":
			keys := req.Keys
			if len(keys) == 0 && req.Key != "" {
				keys = []string{req.Key}
			}
			kv.Delete(keys...)
			_ = enc.Encode(Response{OK: true})
		case "clear":
			kv.Clear()
			_ = enc.Encode(Response{OK: true})
		default:
			_ = enc.Encode(Response{OK: false, Error: "unknown op"})
		}
	}
}
