/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package canvas

import "sync"

// EventKind identifies a structured change emitted by the engine.
type EventKind int

const (
	ObjectAdded EventKind = iota
	ObjectRemoved
	TransformChanged
	PropertyChanged
	LayersChanged
	HistoryChanged
	SceneReplaced
)

func (k EventKind) String() string {
	switch k {
	case ObjectAdded:
		return "object_added"
	case ObjectRemoved:
		return "object_removed"
	case TransformChanged:
		return "transform_changed"
	case PropertyChanged:
		return "property_changed"
	case LayersChanged:
		return "layers_changed"
	case HistoryChanged:
		return "history_changed"
	case SceneReplaced:
		return "scene_replaced"
	}
	return "unknown"
}

// Event is one change notification. ObjectID is empty for scene-wide events.
// Preview marks transform updates that were not committed to history.
type Event struct {
	Kind     EventKind
	ObjectID string
	Preview  bool
	CanUndo  bool
	CanRedo  bool
}

// Bus fans events out to subscribers in subscription order.
type Bus struct {
	mu   sync.Mutex
	next int
	subs []subscription
}

type subscription struct {
	id int
	fn func(Event)
}

// NewBus returns an empty bus.
func NewBus() *Bus { return &Bus{} }

// Subscribe registers fn and returns a function that removes it again.
func (b *Bus) Subscribe(fn func(Event)) (cancel func()) {
	b.mu.Lock()
	b.next++
	id := b.next
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers ev synchronously. Handlers run without the bus lock held,
// so they may subscribe or cancel.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()
	for _, s := range subs {
		s.fn(ev)
	}
}
