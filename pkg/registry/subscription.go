// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package registry

import (
	"sync"
)

// 📬 Subscription delivers matching events in publish order.
// Publishing never blocks: events queue per subscriber, and a pending progress
// snapshot for an operation is replaced by a newer one instead of piling up.
type Subscription struct {
	id     uint64
	filter Filter
	reg    *Registry

	out  chan Event
	wake chan struct{}
	done chan struct{}
	once sync.Once

	mu    sync.Mutex
	queue []Event
}

func newSubscription(reg *Registry, id uint64, filter Filter, buffer int) *Subscription {
	s := &Subscription{
		id:     id,
		filter: filter,
		reg:    reg,
		out:    make(chan Event, buffer),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go s.pump()
	return s
}

// Events returns the delivery channel; it is closed after Close
func (s *Subscription) Events() <-chan Event {
	return s.out
}

// Close detaches the subscription from the registry
func (s *Subscription) Close() {
	s.reg.unsubscribe(s)
}

func (s *Subscription) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *Subscription) enqueue(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.progress {
		for i := len(s.queue) - 1; i >= 0; i-- {
			if s.queue[i].OperationID != ev.OperationID {
				continue
			}
			if s.queue[i].progress {
				s.queue[i] = ev
				return
			}
			break
		}
	}

	s.queue = append(s.queue, ev)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) pump() {
	defer close(s.out)

	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		for {
			s.mu.Lock()
			if len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			ev := s.queue[0]
			s.queue[0] = Event{}
			s.queue = s.queue[1:]
			s.mu.Unlock()

			select {
			case s.out <- ev:
			case <-s.done:
				return
			}
		}
	}
}
