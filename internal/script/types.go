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

import "fmt"

// Script is a parsed list of editing operations. Scripts drive the editor
// from the command line and from tests, one operation per line:
//
//	# comment
//	view Back
//	zone chest
//	variant black M
//	text "Happy birthday" size=48 fill=#cc0000 bold as=greeting
//	image logos/star.png as=star x=300 y=200
//	move greeting 320 180
//	scale star 0.5
//	rotate star 15
//	flip star x
//	opacity greeting -0.25
//	hide star
//	edit greeting "Happy birthday, Sam"
//	pick 320 180 as=top
//	raise star
//	delete star
//	undo
//	redo
type Script struct {
	Ops []Op
}

// OpKind names an operation.
type OpKind string

const (
	OpView    OpKind = "view"
	OpZone    OpKind = "zone"
	OpVariant OpKind = "variant"
	OpText    OpKind = "text"
	OpImage   OpKind = "image"
	OpMove    OpKind = "move"
	OpScale   OpKind = "scale"
	OpRotate  OpKind = "rotate"
	OpFlip    OpKind = "flip"
	OpOpacity OpKind = "opacity"
	OpHide    OpKind = "hide"
	OpShow    OpKind = "show"
	OpEdit    OpKind = "edit"
	OpRaise   OpKind = "raise"
	OpLower   OpKind = "lower"
	OpDelete  OpKind = "delete"
	OpPick    OpKind = "pick"
	OpUndo    OpKind = "undo"
	OpRedo    OpKind = "redo"
)

// arity is the number of positional arguments each operation takes;
// a negative value means "at least -n".
var arity = map[OpKind]int{
	OpView: 1, OpZone: 1, OpVariant: -1, OpText: 1, OpImage: 1,
	OpMove: 3, OpScale: -2, OpRotate: 2, OpFlip: 2, OpOpacity: 2,
	OpHide: 1, OpShow: 1, OpEdit: 2, OpRaise: 1, OpLower: 1, OpDelete: 1,
	OpPick: 2, OpUndo: 0, OpRedo: 0,
}

// Op is one script line. Args are positional, Opts the key=value pairs and
// bare flags (stored with an empty value).
type Op struct {
	Kind   OpKind
	Args   []string
	Opts   map[string]string
	LineNo int // 1-based line number in the source
}

// Opt returns an option value and whether it was given.
func (o Op) Opt(key string) (string, bool) {
	v, ok := o.Opts[key]
	return v, ok
}

// Error represents a parse or run error with position context.
type Error struct {
	Line    int
	Column  int
	Message string
	Err     error
}

func (e Error) Unwrap() error { return e.Err }

func (e Error) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}
