// Copyright 2020-2021 Dolthub, Inc.
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

package sqlc

import (
	"os"

	"github.com/sirupsen/logrus"
)

const (
	textLogFormat = "text"
	jsonLogFormat = "json"
)

// newLogger builds the logger of an engine from its configuration. Debug
// lowers the level to debug whatever LogLevel says.
func newLogger(c Config) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, ErrInvalidConfig.Wrap(err, "log level "+c.LogLevel)
	}
	if c.Debug && lvl < logrus.DebugLevel {
		lvl = logrus.DebugLevel
	}

	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(lvl)
	switch c.LogFormat {
	case textLogFormat, "":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case jsonLogFormat:
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, ErrInvalidConfig.New("unknown log format " + c.LogFormat)
	}
	return l, nil
}
