/*
Copyright 2020 The OVSDB Manager Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package ovsdbapi

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Fundacio-i2CAT/ovsdb-manager/ovsdbclient"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

/*
A Listener is a running gateway, returned by Run and Listen.
*/
type Listener struct {
	server   *Server
	http     *http.Server
	listener net.Listener
	done     chan error
}

/*
Run reads the configuration set up by SetConfigDefaults and starts the
gateway. The flags must already be parsed.
*/
func Run() (*Listener, error) {
	if err := getConfig(); err != nil {
		return nil, err
	}

	if viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	port := viper.GetInt("port")
	if port < 0 {
		return nil, errors.New("port is required")
	}

	endpoint, err := ovsdbclient.ParseEndpoint(
		viper.GetString("endpoint"), viper.GetString("database"))
	if err != nil {
		return nil, err
	}
	opts := ovsdbclient.Options{
		ConnectTimeout: viper.GetDuration("connectTimeout"),
		CallTimeout:    viper.GetDuration("callTimeout"),
	}

	s := NewServer(endpoint, opts, viper.GetDuration("schemaTTL"))
	s.SetTempDir(viper.GetString("tempDir"))

	addr := net.JoinHostPort(viper.GetString("address"), strconv.Itoa(port))
	return Listen(addr, s)
}

// Listen starts serving s on addr in the background.
func Listen(addr string, s *Server) (*Listener, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	ln := &Listener{
		server:   s,
		http:     &http.Server{Handler: s},
		listener: l,
		done:     make(chan error, 1),
	}
	log.Infof("Listening on %s", l.Addr())

	go func() {
		ln.done <- ln.http.Serve(l)
	}()
	return ln, nil
}

// Address returns the address the gateway listens on.
func (l *Listener) Address() string {
	return l.listener.Addr().String()
}

// Stop waits for requests in progress, then closes the OVSDB connection.
func (l *Listener) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := l.http.Shutdown(ctx); err != nil {
		log.Warnf("Error shutting down: %s", err)
	}
	l.server.Close()
}

/*
WaitForShutdown blocks until SIGINT or SIGTERM arrives or the listener
fails, and then stops the gateway.
*/
func (l *Listener) WaitForShutdown() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case sig := <-sigs:
		log.Infof("Shutting down on %s", sig)
	case err := <-l.done:
		log.Infof("Shutting down: %s", err)
	}
	l.Stop()
}
