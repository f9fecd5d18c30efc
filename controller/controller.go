// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package controller wires the keyspace, AOF, dispatcher, event loop and
// admin HTTP plane into one process lifecycle: New, Start, Reload, Stop.
package controller

import (
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kataradb/kataradb/aof"
	"github.com/kataradb/kataradb/command"
	"github.com/kataradb/kataradb/common"
	"github.com/kataradb/kataradb/confengine"
	"github.com/kataradb/kataradb/internal/sigs"
	"github.com/kataradb/kataradb/logger"
	"github.com/kataradb/kataradb/server"
	"github.com/kataradb/kataradb/store"
)

type Controller struct {
	cfg       Config
	buildInfo common.BuildInfo

	keyspace   *store.Keyspace
	aofFile    *aof.AOF
	dispatcher *command.Dispatcher
	loop       *eventLoop
	svr        *server.Server
}

func setupLogger(conf *confengine.Config) error {
	var opts logger.Options
	if conf.Has("logger") {
		if err := conf.UnpackChild("logger", &opts); err != nil {
			return err
		}
	}

	if opts.Filename == "" && !opts.Stdout {
		opts.Filename = "kataradb.log"
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 10
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 7
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = 100
	}

	logger.SetOptions(opts)
	return nil
}

// New builds every subsystem but starts nothing: the event loop's
// listening socket is only opened from Start, so a failed New never
// leaves a socket bound.
func New(conf *confengine.Config, buildInfo common.BuildInfo) (*Controller, error) {
	if err := setupLogger(conf); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if conf.Has("server") {
		if err := conf.UnpackChild("server", &cfg.Server); err != nil {
			return nil, err
		}
	}
	if conf.Has("keyspace") {
		if err := conf.UnpackChild("keyspace", &cfg.Keyspace); err != nil {
			return nil, err
		}
	}
	if conf.Has("expiration") {
		if err := conf.UnpackChild("expiration", &cfg.Expiration); err != nil {
			return nil, err
		}
	}
	if conf.Has("aof") {
		if err := conf.UnpackChild("aof", &cfg.AOF); err != nil {
			return nil, err
		}
	}

	svr, err := server.New(conf)
	if err != nil {
		return nil, err
	}

	ks := store.New(cfg.Keyspace)
	a := aof.New(cfg.AOF)
	d := command.NewDispatcher(ks, a)

	return &Controller{
		cfg:        cfg,
		buildInfo:  buildInfo,
		keyspace:   ks,
		aofFile:    a,
		dispatcher: d,
		svr:        svr,
	}, nil
}

// Start opens the listening socket and begins serving. The event loop
// itself runs on the calling goroutine's own spawned goroutine; Start
// returns once the loop has bound its listener (or failed to).
func (c *Controller) Start() error {
	loop, err := newEventLoop(c.cfg.Server, c.dispatcher, c.cfg.Expiration)
	if err != nil {
		return err
	}
	c.loop = loop

	c.setupServer()
	if c.svr != nil {
		go func() {
			err := c.svr.ListenAndServe()
			if !errors.Is(err, io.EOF) {
				logger.Errorf("admin server failed: %v", err)
			}
		}()
	}

	go c.loop.run()
	return nil
}

func (c *Controller) setupServer() {
	if c.svr == nil {
		return
	}

	c.svr.RegisterGetRoute("/metrics", func(w http.ResponseWriter, r *http.Request) {
		c.recordMetrics()
		promhttp.Handler().ServeHTTP(w, r)
	})
	c.svr.RegisterGetRoute("/info", func(w http.ResponseWriter, r *http.Request) {
		stats := c.keyspace.Stats()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(renderInfoJSON(stats, c.buildInfo)))
	})

	c.svr.RegisterPostRoute("/-/logger", func(w http.ResponseWriter, r *http.Request) {
		logger.SetLoggerLevel(r.FormValue("level"))
		w.Write([]byte(`{"status": "success"}`))
	})
	c.svr.RegisterPostRoute("/-/reload", func(w http.ResponseWriter, r *http.Request) {
		if err := sigs.SelfReload(); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(err.Error()))
		}
	})
}

func (c *Controller) recordMetrics() {
	uptime.Set(float64(time.Now().Unix() - common.Started()))
	buildInfo.WithLabelValues(c.buildInfo.Version, c.buildInfo.GitHash, c.buildInfo.Time).Inc()
}

// Reload re-reads only the aof section, so later rewrites use the new AOF
// path. The server, keyspace and expiration settings keep the values New
// loaded; a reload does not change them.
func (c *Controller) Reload(conf *confengine.Config) error {
	if conf.Has("aof") {
		var aofCfg aof.Config
		if err := conf.UnpackChild("aof", &aofCfg); err != nil {
			return err
		}
		c.aofFile = aof.New(aofCfg)
		c.dispatcher.AOF = c.aofFile
	}
	logger.Infof("controller: reload complete")
	return nil
}

// Stop tears down the event loop, then runs a final synchronous AOF
// rewrite — spec.md §4.9's shutdown order: close the multiplexer before
// BGREWRITEAOF. The event loop is the keyspace's only writer (spec.md
// §4.3); loop.stop() blocks until its goroutine has returned from
// cleanup (poller closed, all sessions dropped), so Rewrite's scan of
// the keyspace is guaranteed to see a quiesced final state rather than
// race a still-running loop goroutine.
func (c *Controller) Stop() {
	if c.loop != nil {
		c.loop.stop()
	}
	if err := c.aofFile.Rewrite(c.keyspace); err != nil {
		logger.Errorf("controller: final aof rewrite failed: %v", err)
	}
}
