/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package script

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

var (
	reOption = regexp.MustCompile(`^([a-z][a-z0-9_\-]*)=(.*)$`)
	reFlag   = regexp.MustCompile(`^(bold|italic)$`)
)

// Parse parses script text. Parsing continues past bad lines so that every
// problem is reported; ops from bad lines are dropped.
// Syntax:
//   - one operation per line: a keyword, positional args, then options
//   - args may be double-quoted Go strings ("a \"b\"\nc")
//   - options are key=value; bold and italic are bare flags
//   - '#' starts a comment line; blank lines are ignored
func Parse(input string) (Script, []Error) {
	s := Script{Ops: []Op{}}
	var errs []Error

	scanner := bufio.NewScanner(strings.NewReader(input))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		trim := strings.TrimSpace(scanner.Text())
		if trim == "" || strings.HasPrefix(trim, "#") {
			continue
		}
		toks, col, msg := tokenize(trim)
		if msg != "" {
			errs = append(errs, Error{Line: lineNo, Column: col, Message: msg})
			continue
		}
		op := Op{Kind: OpKind(strings.ToLower(toks[0].text)), Opts: map[string]string{}, LineNo: lineNo}
		want, known := arity[op.Kind]
		if !known {
			errs = append(errs, Error{Line: lineNo, Column: 1, Message: "unknown operation " + strconv.Quote(toks[0].text)})
			continue
		}
		bad := false
		for _, tk := range toks[1:] {
			if !tk.quoted {
				if m := reOption.FindStringSubmatch(tk.text); m != nil {
					op.Opts[m[1]] = m[2]
					continue
				}
				if reFlag.MatchString(tk.text) && op.Kind == OpText {
					op.Opts[tk.text] = ""
					continue
				}
			}
			if len(op.Opts) > 0 {
				errs = append(errs, Error{Line: lineNo, Column: tk.col, Message: "positional argument after options"})
				bad = true
				break
			}
			op.Args = append(op.Args, tk.text)
		}
		if bad {
			continue
		}
		if (want >= 0 && len(op.Args) != want) || (want < 0 && len(op.Args) < -want) {
			errs = append(errs, Error{Line: lineNo, Column: 1, Message: arityMessage(op.Kind, want, len(op.Args))})
			continue
		}
		s.Ops = append(s.Ops, op)
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, Error{Line: lineNo, Column: 1, Message: err.Error()})
	}
	return s, errs
}

func arityMessage(k OpKind, want, got int) string {
	if want < 0 {
		return string(k) + " needs at least " + strconv.Itoa(-want) + " argument(s), got " + strconv.Itoa(got)
	}
	return string(k) + " takes " + strconv.Itoa(want) + " argument(s), got " + strconv.Itoa(got)
}

type token struct {
	text   string
	col    int
	quoted bool
}

// tokenize splits on whitespace, honouring double-quoted strings. On error it
// returns the 1-based column and a message.
func tokenize(line string) ([]token, int, string) {
	var toks []token
	i := 0
	for i < len(line) {
		if line[i] == ' ' || line[i] == '\t' {
			i++
			continue
		}
		start := i
		if line[i] == '"' {
			j := i + 1
			for j < len(line) && line[j] != '"' {
				if line[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(line) {
				return nil, start + 1, "unterminated string"
			}
			text, err := strconv.Unquote(line[i : j+1])
			if err != nil {
				return nil, start + 1, "bad string: " + err.Error()
			}
			toks = append(toks, token{text: text, col: start + 1, quoted: true})
			i = j + 1
			continue
		}
		for i < len(line) && line[i] != ' ' && line[i] != '\t' {
			i++
		}
		toks = append(toks, token{text: line[start:i], col: start + 1})
	}
	return toks, 0, ""
}
