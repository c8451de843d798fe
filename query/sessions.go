// Copyright (c) 2020 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

package query

import (
	"sort"
	"sync"
	"time"
)

// Session is a database materialized for a single call.
type Session struct {
	Entry   string    `json:"entry"`
	Dir     string    `json:"dir"`
	Path    string    `json:"path"`
	Started time.Time `json:"started"`
}

type sessionMap struct {
	sync.RWMutex
	sessions map[string]Session
}

func newSessionMap() *sessionMap {
	return &sessionMap{sessions: map[string]Session{}}
}

func (sm *sessionMap) all() []Session {
	sm.RLock()
	defer sm.RUnlock()
	sessions := make([]Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Started.Before(sessions[j].Started) })
	return sessions
}

func (sm *sessionMap) add(s Session) {
	sm.Lock()
	sm.sessions[s.Dir] = s
	sm.Unlock()
}

func (sm *sessionMap) remove(dir string) {
	sm.Lock()
	delete(sm.sessions, dir)
	sm.Unlock()
}
