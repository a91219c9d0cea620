package highlight

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/go-enry/go-enry/v2"
)

// ChromaTokenizer tokenizes content with the chroma lexer matching the file.
// The lexer is chosen by enry's language detection first, then chroma's own
// filename match, then content analysis; plain text is the last resort.
func ChromaTokenizer(path, content string) []TokenLine {
	it, err := lexerFor(path, content).Tokenise(nil, content)
	if err != nil {
		return PlainTokenizer(path, content)
	}

	var out []TokenLine
	for _, line := range chroma.SplitTokensIntoLines(it.Tokens()) {
		tl := make(TokenLine, 0, len(line))
		for _, tok := range line {
			v := strings.TrimSuffix(tok.Value, "\n")
			if v == "" {
				continue
			}
			tl = append(tl, Token{Type: tok.Type.String(), Value: v})
		}
		out = append(out, tl)
	}
	return out
}

// PlainTokenizer yields one Text token per line.
func PlainTokenizer(_ string, content string) []TokenLine {
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	out := make([]TokenLine, len(lines))
	for i, l := range lines {
		if l == "" {
			out[i] = TokenLine{}
			continue
		}
		out[i] = TokenLine{{Type: "Text", Value: l}}
	}
	return out
}

func lexerFor(path, content string) chroma.Lexer {
	base := filepath.Base(path)

	var lexer chroma.Lexer
	if lang := enry.GetLanguage(base, []byte(content)); lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Match(base)
	}
	if lexer == nil {
		lexer = lexers.Analyse(content)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}
