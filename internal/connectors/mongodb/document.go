package mongodb

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IDString renders a document _id for use as a record id.
func IDString(id any) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		data, err := bson.MarshalExtJSON(idHolder{ID: v}, false, false)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

// FieldBytes returns the payload of a content field and the MIME type the
// value implies. Strings are text, binary is left for sniffing, and nested
// values are rendered as relaxed extended JSON.
func FieldBytes(v any) ([]byte, string, error) {
	switch val := v.(type) {
	case nil:
		return []byte{}, "", nil
	case string:
		return []byte(val), "text/plain", nil
	case primitive.Binary:
		return val.Data, "", nil
	case []byte:
		return val, "", nil
	case bson.M, bson.D, bson.A, map[string]any, []any:
		data, err := bson.MarshalExtJSON(bson.M{"value": val}, false, false)
		if err != nil {
			return nil, "", err
		}
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, "", err
		}
		return wrapper["value"], "application/json", nil
	default:
		return []byte(fmt.Sprint(val)), "text/plain", nil
	}
}

// FieldString returns a title-like field as a string.
func FieldString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// ModifiedAt returns the creation time encoded in an ObjectID, or zero.
func ModifiedAt(id any) time.Time {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Timestamp().UTC()
	}
	return time.Time{}
}
