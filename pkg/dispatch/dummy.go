package dispatch

import (
	"context"
	"fmt"
	"strings"
)

// ProviderDummy is a local echo provider useful for trying the pipeline
// without API calls. It is not part of the user-facing provider menu.
const ProviderDummy Provider = "dummy"

type dummyCaller struct {
	Prefix string
}

func (d *dummyCaller) call(_ context.Context, _ string, p payload) (Response, error) {
	prefix := d.Prefix
	if strings.TrimSpace(prefix) == "" {
		prefix = "Dummy response:"
	}

	lines := strings.Split(p.prompt, "\n")
	var last string
	for i := len(lines) - 1; i >= 0; i-- {
		if candidate := strings.TrimSpace(lines[i]); candidate != "" {
			last = candidate
			break
		}
	}
	if last == "" {
		last = "<empty prompt>"
	}
	if len(p.fileImages) > 0 || p.fileText != "" {
		last = fmt.Sprintf("%s [file: %d images, %d text bytes]", last, len(p.fileImages), len(p.fileText))
	}
	return textResponse(fmt.Sprintf("%s %s", prefix, last)), nil
}
