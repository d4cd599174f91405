/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package crew

import (
	"context"
	"sync"

	"github.com/Comcast/sweep/bridge"
)

// Session is an engine with its bridge and a host interpreter.
// Evaluations in a session are serialized.
type Session struct {
	sync.Mutex

	Id          string `json:"id"`
	Interpreter string `json:"interpreter"`

	bridge *bridge.Bridge
	interp bridge.Interpreter

	// bs are the host bindings that persist from one evaluation
	// to the next.
	bs bridge.Bindings
}

// Bridge returns the session's bridge.
func (s *Session) Bridge() *bridge.Bridge {
	return s.bridge
}

// Eval runs host source in the session.  On success the execution's
// bindings become the session's bindings.
func (s *Session) Eval(ctx context.Context, src string) (*bridge.Execution, error) {
	s.Lock()
	defer s.Unlock()

	exe, err := s.interp.Exec(ctx, s.bridge, s.bs, src, nil)
	if err != nil {
		return exe, err
	}
	s.bs = exe.Bs
	return exe, nil
}

// Bindings returns a copy of the session's bindings.
func (s *Session) Bindings() bridge.Bindings {
	s.Lock()
	defer s.Unlock()
	return s.bs.Copy()
}

func (s *Session) close() error {
	s.Lock()
	defer s.Unlock()
	return s.bridge.Engine().Cleanup()
}

// Reconsult reloads a file unless a query is open, in which case it
// reports false.
func (s *Session) Reconsult(file string) (bool, error) {
	s.Lock()
	defer s.Unlock()
	e := s.bridge.Engine()
	if e.CurrentQuery() != nil {
		return false, nil
	}
	return true, e.Consult(file)
}
