package providers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/llm"
)

// reasoningModelPrefixes lists the model families that take reasoning_effort
// and reject any temperature other than the default.
var reasoningModelPrefixes = []string{"gpt-5", "o1", "o3", "o4"}

// isReasoningModel reports whether model belongs to a reasoning family.
func isReasoningModel(model string) bool {
	m := strings.ToLower(model)
	for _, p := range reasoningModelPrefixes {
		if m == p || strings.HasPrefix(m, p+"-") || strings.HasPrefix(m, p+".") {
			return true
		}
	}
	return false
}

// chatParamsTransport rewrites chat completion bodies built by langchaingo.
// langchaingo only knows how to send reasoning_effort and verbosity inside
// "metadata", and it always sends "temperature". This transport lifts the
// two keys to top-level fields and drops temperature for reasoning models.
type chatParamsTransport struct {
	base http.RoundTripper
}

func newChatParamsClient(base http.RoundTripper) *http.Client {
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{Transport: &chatParamsTransport{base: base}}
}

func (t *chatParamsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodPost || req.Body == nil || !strings.HasSuffix(req.URL.Path, "/chat/completions") {
		return t.base.RoundTrip(req)
	}

	body, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, err
	}
	if rewritten, ok := rewriteChatBody(body); ok {
		body = rewritten
	}

	out := req.Clone(req.Context())
	out.Body = io.NopCloser(bytes.NewReader(body))
	out.ContentLength = int64(len(body))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	return t.base.RoundTrip(out)
}

// rewriteChatBody returns the adjusted body, or false when body is not a JSON
// object and must be sent unchanged.
func rewriteChatBody(body []byte) ([]byte, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, false
	}

	var model string
	_ = json.Unmarshal(fields["model"], &model)

	reasoning := isReasoningModel(model)
	if raw, ok := fields["metadata"]; ok {
		var meta map[string]json.RawMessage
		if err := json.Unmarshal(raw, &meta); err == nil {
			for _, key := range []string{llm.MetadataReasoningEffort, llm.MetadataVerbosity} {
				v, ok := meta[key]
				if !ok {
					continue
				}
				fields[key] = v
				delete(meta, key)
				if key == llm.MetadataReasoningEffort {
					reasoning = true
				}
			}
			if len(meta) == 0 {
				delete(fields, "metadata")
			} else if enc, err := json.Marshal(meta); err == nil {
				fields["metadata"] = enc
			}
		}
	}
	if reasoning {
		delete(fields, "temperature")
	}

	out, err := json.Marshal(fields)
	if err != nil {
		return nil, false
	}
	return out, true
}
