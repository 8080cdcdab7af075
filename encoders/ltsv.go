package encoders

import (
	"strconv"
	"strings"

	"github.com/jasonmartens/flowgger/event"
)

// LTSVEncoder emits tab-separated "key:value" pairs, the inverse of
// decoders.LTSVDecoder. Embedded tabs and newlines in values are replaced
// with a space since LTSV has no escaping convention for its own
// delimiters.
type LTSVEncoder struct {
	Extra ExtraHeaders
}

func NewLTSVEncoder(extra ExtraHeaders) *LTSVEncoder {
	return &LTSVEncoder{Extra: extra}
}

func (e *LTSVEncoder) Encode(ev event.Event) ([]byte, error) {
	var parts []string
	parts = append(parts, "time:"+strconv.FormatInt(ev.Timestamp, 10))
	parts = append(parts, "host:"+ltsvEscape(ev.Hostname))
	if ev.HasSeverity {
		parts = append(parts, "level:"+strconv.Itoa(ev.Severity))
	}
	parts = append(parts, "message:"+ltsvEscape(ev.Msg))

	if ev.SD != nil {
		if f, ok := ev.SD.Lookup(event.ExtraID); ok {
			for _, p := range f.Pairs() {
				parts = append(parts, p.Key+":"+ltsvEscape(p.Value.String()))
			}
		}
	}
	for k, v := range e.Extra {
		parts = append(parts, k+":"+ltsvEscape(v))
	}

	return []byte(strings.Join(parts, "\t")), nil
}

func ltsvEscape(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
