/* Copyright 2019 Comcast Cable Communications Management, LLC
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

// Package sio couples sessions to the outside world: a line-oriented
// REPL over stdio and a WebSocket service.
package sio

import (
	"context"
)

// Couplings run until their input ends or ctx is done.
type Couplings interface {
	Run(ctx context.Context) error
}

var (
	_ Couplings = (*Stdio)(nil)
	_ Couplings = (*WebSockets)(nil)
)
