// SPDX-License-Identifier: MPL-2.0

package cakemod

import (
	"strings"
)

// ParseDeclaration extracts the module references declared by line.
//
// A line that does not start with scheme.Prefix and end with scheme.Suffix
// declares nothing and yields (nil, nil). Inside the markers tokens are
// separated by single spaces. In lenient mode the empty tokens left by
// repeated spaces are dropped and an empty body declares nothing; in strict
// mode both are malformed. Only spaces separate tokens, so a tab or other
// whitespace ends up inside a token, and tokens that cannot name a file are
// malformed in both modes.
func ParseDeclaration(line string, scheme MarkerScheme, strict bool) ([]ModuleRef, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, scheme.Prefix) || !strings.HasSuffix(line, scheme.Suffix) {
		return nil, nil
	}

	// The markers can overlap on a line such as "(* deps: *)"; treat that as
	// an empty body rather than slicing out of range.
	var body string
	if len(line) > len(scheme.Prefix)+len(scheme.Suffix) {
		body = line[len(scheme.Prefix) : len(line)-len(scheme.Suffix)]
	}
	body = strings.TrimSpace(body)

	if body == "" {
		if strict {
			return nil, &MalformedDeclarationError{Line: line, Reason: "declaration lists no modules"}
		}
		return nil, nil
	}

	tokens := strings.Split(body, " ")
	refs := make([]ModuleRef, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			if !strict {
				continue
			}
			return nil, &MalformedDeclarationError{Line: line, Reason: "modules must be separated by a single space"}
		}
		ref := ModuleRef(tok)
		if err := ref.Validate(); err != nil {
			return nil, &MalformedDeclarationError{Line: line, Reason: err.Error(), Err: err}
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
