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

package sio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"

	"github.com/Comcast/sweep/bridge"
	"github.com/Comcast/sweep/lisp"
)

// JS renders its argument as JSON or as '%#v'.
func JS(x interface{}) string {
	if x == nil {
		return "null"
	}
	js, err := json.Marshal(&x)
	if err != nil {
		return fmt.Sprintf("%#v", x)
	}
	return string(js)
}

// JShort renders its argument as JS() but only up to 73 characters.
func JShort(x interface{}) string {
	js := []byte(JS(x))
	if 70 < len(js) {
		js = js[0:70]
		js = append(js, []byte("...")...)
	}
	return string(js)
}

// Reply is what an evaluation produces for a client.
type Reply struct {
	// Result is the printed value.
	Result string `json:"result,omitempty"`

	// Messages are what the evaluation logged.
	Messages []string `json:"messages,omitempty"`

	// Error is the printed error, if any.  For a signal this is
	// the condition (SYMBOL . DATA).
	Error string `json:"error,omitempty"`
}

// NewReply makes a Reply from an evaluation's results.
func NewReply(exe *bridge.Execution, err error) *Reply {
	r := &Reply{}
	if exe != nil {
		r.Messages = exe.Messages
	}
	if err != nil {
		if s, is := err.(*lisp.Signal); is {
			r.Error = lisp.Print(s.Value())
		} else {
			r.Error = err.Error()
		}
		return r
	}
	if exe != nil {
		r.Result = lisp.Print(exe.Value)
	}
	return r
}

var shell = regexp.MustCompile(`<<(.*?)>>`)

// ShellExpand expands shell commands delimited by '<<' and '>>'.  Use
// at your own risk, of course!
func ShellExpand(src string) (string, error) {
	literals := shell.Split(src, -1)
	ss := shell.FindAllStringSubmatch(src, -1)
	acc := literals[0]
	for i, s := range ss {
		var sh = s[1]
		cmd := exec.Command("bash", "-c", sh)
		var out bytes.Buffer
		cmd.Stdout = &out
		if err := cmd.Run(); err != nil {
			return "", fmt.Errorf("shell error %s on %s", err, sh)
		}
		acc += out.String()
		acc += literals[i+1]
	}
	return acc, nil
}
