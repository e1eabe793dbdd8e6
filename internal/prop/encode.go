package prop

import (
	"fmt"

	"github.com/BurntSushi/xgb"
)

// Encode packs a property value for the given format. Formats 32 and 16
// pack unsigned integers in the connection byte order; format 8 passes
// strings and byte slices through and packs other scalars one byte each.
// A scalar is treated as a one-element sequence.
func Encode(value any, format int) ([]byte, error) {
	if !validFormat(format) {
		return nil, fmt.Errorf("%w: format %d", ErrInvalidProperty, format)
	}

	if format == 8 {
		switch v := value.(type) {
		case string:
			return []byte(v), nil
		case []byte:
			return v, nil
		case []string:
			// NUL separated, as _NET_DESKTOP_NAMES expects
			var out []byte
			for _, s := range v {
				out = append(out, s...)
				out = append(out, 0)
			}
			return out, nil
		}
	}

	nums, err := toUints(value)
	if err != nil {
		return nil, err
	}

	switch format {
	case 8:
		out := make([]byte, len(nums))
		for i, n := range nums {
			out[i] = byte(n)
		}
		return out, nil
	case 16:
		out := make([]byte, len(nums)*2)
		for i, n := range nums {
			xgb.Put16(out[i*2:], uint16(n))
		}
		return out, nil
	default:
		return pack32(nums), nil
	}
}

func toUints(value any) ([]uint32, error) {
	switch v := value.(type) {
	case uint32:
		return []uint32{v}, nil
	case uint16:
		return []uint32{uint32(v)}, nil
	case uint8:
		return []uint32{uint32(v)}, nil
	case uint:
		return []uint32{uint32(v)}, nil
	case int:
		return []uint32{uint32(v)}, nil
	case int32:
		return []uint32{uint32(v)}, nil
	case bool:
		if v {
			return []uint32{1}, nil
		}
		return []uint32{0}, nil
	case []uint32:
		return v, nil
	case []uint16:
		out := make([]uint32, len(v))
		for i, n := range v {
			out[i] = uint32(n)
		}
		return out, nil
	case []int:
		out := make([]uint32, len(v))
		for i, n := range v {
			out[i] = uint32(n)
		}
		return out, nil
	case WMState:
		return []uint32{v.State, v.Icon}, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: cannot pack %T", ErrInvalidProperty, value)
	}
}
