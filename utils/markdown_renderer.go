package utils

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// RenderMarkdown highlights generated markdown for terminal preview. Fenced
// code blocks are highlighted with the language of the fence; everything else
// is rendered as markdown.
func RenderMarkdown(ctx context.Context, content string, theme string) (string, error) {
	var out bytes.Buffer
	language := "markdown"
	inCodeBlock := false

	for i, line := range strings.Split(content, "\n") {
		if i%16 == 0 {
			select {
			case <-ctx.Done():
				return out.String(), ctx.Err()
			default:
			}
		}

		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if !inCodeBlock {
				fence := strings.TrimPrefix(strings.TrimSpace(line), "```")
				if fence != "" {
					language = fence
				}
			} else {
				language = "markdown"
			}
			inCodeBlock = !inCodeBlock
			continue
		}

		lexer := "markdown"
		if inCodeBlock {
			lexer = language
		}
		if err := quick.Highlight(&out, line+"\n", lexer, "terminal256", theme); err != nil {
			// Unknown lexers fall back to plain output rather than failing
			// the preview.
			fmt.Fprintln(&out, line)
		}
	}

	return out.String(), nil
}
