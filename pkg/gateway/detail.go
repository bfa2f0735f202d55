package gateway

import (
	"github.com/go-faster/jx"
)

// errorDetail extracts a human-readable message from an error body.
// Supported shapes: {"detail": "..."}, {"detail": [{"msg": "..."}]},
// {"error": "..."} and {"message": "..."}.
func errorDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	d := jx.DecodeBytes(body)
	if d.Next() != jx.Object {
		return ""
	}
	var detail string
	setOnce := func(d *jx.Decoder) error {
		if d.Next() != jx.String {
			return d.Skip()
		}
		s, err := d.Str()
		if err != nil {
			return err
		}
		if detail == "" {
			detail = s
		}
		return nil
	}
	_ = d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "detail":
			if d.Next() != jx.Array {
				return setOnce(d)
			}
			return d.Arr(func(d *jx.Decoder) error {
				if d.Next() != jx.Object {
					return d.Skip()
				}
				return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
					if string(key) == "msg" {
						return setOnce(d)
					}
					return d.Skip()
				})
			})
		case "error", "message":
			return setOnce(d)
		default:
			return d.Skip()
		}
	})
	return detail
}
