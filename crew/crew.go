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

// Package crew keeps sessions: one engine, its bridge and a host
// interpreter per execution context.
package crew

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Comcast/sweep/bridge"
	"github.com/Comcast/sweep/core"
	"github.com/Comcast/sweep/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNoSession is returned for an unknown session id.
var ErrNoSession = errors.New("no such session")

// Conf says how to make a session.
type Conf struct {
	// Argv initialises each session's engine.  Argv[0] is the
	// program name.
	Argv []string `json:"argv,omitempty" yaml:"argv,omitempty"`

	// Consult lists files every session loads after initialising.
	Consult []string `json:"consult,omitempty" yaml:"consult,omitempty"`

	// Interpreter names the host interpreter.
	Interpreter string `json:"interpreter,omitempty" yaml:"interpreter,omitempty"`

	// InferenceLimit, if positive, bounds each query.
	InferenceLimit int64 `json:"inferenceLimit,omitempty" yaml:"inferenceLimit,omitempty"`
}

// Crew is a collection of sessions.
type Crew struct {
	sync.RWMutex

	Id       string              `json:"id"`
	Sessions map[string]*Session `json:"sessions"`

	conf         *Conf
	interpreters bridge.InterpretersMap
	store        storage.Storage
	logger       *zap.Logger
}

// Option configures a Crew.
type Option func(*Crew)

// WithLogger sets the logger for the crew and its engines.
func WithLogger(l *zap.Logger) Option {
	return func(c *Crew) { c.logger = l }
}

// WithStorage sets the storage every session's persistent predicates
// share.
func WithStorage(s storage.Storage) Option {
	return func(c *Crew) { c.store = s }
}

// NewCrew makes an empty crew.
func NewCrew(conf *Conf, interpreters bridge.InterpretersMap, opts ...Option) (*Crew, error) {
	if conf == nil {
		conf = &Conf{}
	}
	if _, err := interpreters.Find(conf.Interpreter); err != nil {
		return nil, err
	}
	c := &Crew{
		Id:           uuid.New().String(),
		Sessions:     make(map[string]*Session),
		conf:         conf,
		interpreters: interpreters,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Open makes, initialises and registers a new session.
func (c *Crew) Open(ctx context.Context) (*Session, error) {
	interp, err := c.interpreters.Find(c.conf.Interpreter)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	logger := c.logger.With(zap.String("session", id))

	opts := []core.Option{core.WithLogger(logger)}
	if c.store != nil {
		opts = append(opts, core.WithStorage(c.store))
	}
	if 0 < c.conf.InferenceLimit {
		opts = append(opts, core.WithInferenceLimit(c.conf.InferenceLimit))
	}
	e := core.NewEngine(opts...)

	argv := c.conf.Argv
	if len(argv) == 0 {
		argv = []string{"sweep"}
	}
	argv = append(append([]string{}, argv...), c.conf.Consult...)
	if err := e.Initialise(argv); err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}

	s := &Session{
		Id:          id,
		Interpreter: c.conf.Interpreter,
		bridge:      bridge.New(e, nil, bridge.WithLogger(logger)),
		interp:      interp,
		bs:          make(bridge.Bindings),
	}

	c.Lock()
	c.Sessions[id] = s
	c.Unlock()

	logger.Info("session opened", zap.String("interpreter", s.Interpreter))

	return s, nil
}

// Get finds a session.
func (c *Crew) Get(id string) (*Session, error) {
	c.RLock()
	s, have := c.Sessions[id]
	c.RUnlock()
	if !have {
		return nil, fmt.Errorf("%w: %s", ErrNoSession, id)
	}
	return s, nil
}

// Ids returns the session ids in order.
func (c *Crew) Ids() []string {
	c.RLock()
	acc := make([]string, 0, len(c.Sessions))
	for id := range c.Sessions {
		acc = append(acc, id)
	}
	c.RUnlock()
	sort.Strings(acc)
	return acc
}

// Close removes the session and cleans up its engine.
func (c *Crew) Close(id string) error {
	c.Lock()
	s, have := c.Sessions[id]
	delete(c.Sessions, id)
	c.Unlock()
	if !have {
		return fmt.Errorf("%w: %s", ErrNoSession, id)
	}
	c.logger.Info("session closed", zap.String("session", id))
	return s.close()
}

// CloseAll closes every session.  It returns the errors joined.
func (c *Crew) CloseAll() error {
	var errs []error
	for _, id := range c.Ids() {
		if err := c.Close(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
