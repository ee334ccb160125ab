package miniconfig

import (
	"encoding/json"
	"fmt"
	"io"
)

// ParseError reports malformed JSON or an unexpected token shape during the
// streaming parse. Offset is the byte offset into the document at which the
// parse stopped.
type ParseError struct {
	Offset int64
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Msg)
}

// Parse streams a native build config document from r and drives the
// visitor callbacks without materializing the full tree. Unknown keys are
// skipped. On failure no partial model is surfaced; callers discard
// whatever the visitor accumulated.
func Parse(r io.Reader, v Visitor) error {
	p := &parser{dec: json.NewDecoder(r), visitor: v}
	return p.parseDocument()
}

type parser struct {
	dec     *json.Decoder
	visitor Visitor
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Offset: p.dec.InputOffset(), Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) token() (json.Token, error) {
	tok, err := p.dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, p.errorf("unexpected end of document")
		}

		return nil, &ParseError{Offset: p.dec.InputOffset(), Msg: err.Error()}
	}

	return tok, nil
}

func (p *parser) expectDelim(d rune) error {
	tok, err := p.token()
	if err != nil {
		return err
	}

	if delim, ok := tok.(json.Delim); !ok || rune(delim) != d {
		return p.errorf("expected %q, got %v", d, tok)
	}

	return nil
}

func (p *parser) stringValue(field string) (string, error) {
	tok, err := p.token()
	if err != nil {
		return "", err
	}

	s, ok := tok.(string)
	if !ok {
		return "", p.errorf("field %q: expected string, got %v", field, tok)
	}

	return s, nil
}

// optionalString returns nil for JSON null.
func (p *parser) optionalString(field string) (*string, error) {
	tok, err := p.token()
	if err != nil {
		return nil, err
	}

	if tok == nil {
		return nil, nil
	}

	s, ok := tok.(string)
	if !ok {
		return nil, p.errorf("field %q: expected string or null, got %v", field, tok)
	}

	return &s, nil
}

func (p *parser) parseDocument() error {
	if err := p.expectDelim('{'); err != nil {
		return err
	}

	for p.dec.More() {
		key, err := p.stringValue("key")
		if err != nil {
			return err
		}

		switch key {
		case "libraries":
			if err := p.parseLibraries(); err != nil {
				return err
			}
		case "cleanCommands":
			if err := p.parseStringArray(key, p.visitor.VisitCleanCommands); err != nil {
				return err
			}
		case "buildFiles":
			if err := p.parseStringArray(key, p.visitor.VisitBuildFile); err != nil {
				return err
			}
		case "buildTargetsCommand":
			command, err := p.optionalString(key)
			if err != nil {
				return err
			}

			if err := p.visitor.VisitBuildTargetsCommand(command); err != nil {
				return err
			}
		default:
			if err := p.skipValue(); err != nil {
				return err
			}
		}
	}

	return p.expectDelim('}')
}

func (p *parser) parseLibraries() error {
	if err := p.expectDelim('{'); err != nil {
		return err
	}

	for p.dec.More() {
		name, err := p.stringValue("library name")
		if err != nil {
			return err
		}

		if err := p.visitor.BeginLibrary(name); err != nil {
			return err
		}

		if err := p.parseLibrary(name); err != nil {
			return err
		}
	}

	return p.expectDelim('}')
}

func (p *parser) parseLibrary(name string) error {
	if err := p.expectDelim('{'); err != nil {
		return err
	}

	for p.dec.More() {
		key, err := p.stringValue("library key")
		if err != nil {
			return err
		}

		switch key {
		case "abi":
			if err := p.visitString(key, p.visitor.VisitLibraryAbi); err != nil {
				return err
			}
		case "artifactName":
			if err := p.visitString(key, p.visitor.VisitLibraryArtifactName); err != nil {
				return err
			}
		case "buildCommand":
			if err := p.visitString(key, p.visitor.VisitLibraryBuildCommand); err != nil {
				return err
			}
		case "output":
			path, err := p.optionalString(key)
			if err != nil {
				return err
			}

			if err := p.visitor.VisitLibraryOutput(path); err != nil {
				return err
			}
		case "runtimeFiles":
			if err := p.parseStringArray(key, p.visitor.VisitLibraryRuntimeFile); err != nil {
				return err
			}
		default:
			if err := p.skipValue(); err != nil {
				return err
			}
		}
	}

	return p.expectDelim('}')
}

func (p *parser) visitString(field string, visit func(string) error) error {
	s, err := p.stringValue(field)
	if err != nil {
		return err
	}

	return visit(s)
}

func (p *parser) parseStringArray(field string, visit func(string) error) error {
	if err := p.expectDelim('['); err != nil {
		return err
	}

	for p.dec.More() {
		s, err := p.stringValue(field)
		if err != nil {
			return err
		}

		if err := visit(s); err != nil {
			return err
		}
	}

	return p.expectDelim(']')
}

// skipValue consumes one value of any shape, tracking nesting depth.
func (p *parser) skipValue() error {
	tok, err := p.token()
	if err != nil {
		return err
	}

	delim, ok := tok.(json.Delim)
	if !ok || (delim != '{' && delim != '[') {
		return nil // scalar
	}

	depth := 1
	for depth > 0 {
		tok, err := p.token()
		if err != nil {
			return err
		}

		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}

	return nil
}
