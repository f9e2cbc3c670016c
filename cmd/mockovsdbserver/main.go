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

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Fundacio-i2CAT/ovsdb-manager/ovsdbclient"
	"github.com/sirupsen/logrus"
)

func main() {
	var port int
	var socket string
	var probes int
	var debug bool

	flag.IntVar(&port, "p", ovsdbclient.DefaultPort, "Port to listen on")
	flag.StringVar(&socket, "u", "", "Listen on this unix socket instead")
	flag.IntVar(&probes, "e", 0, "Echo probes to send before every reply")
	flag.BoolVar(&debug, "D", false, "Turn on debugging")
	flag.Parse()
	if !flag.Parsed() {
		flag.Usage()
		return
	}

	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	var mock *ovsdbclient.MockServer
	var err error
	if socket != "" {
		mock, err = ovsdbclient.NewMockUnixServer(socket)
	} else {
		mock, err = ovsdbclient.NewMockServer(port)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating server: %s\n", err)
		os.Exit(2)
	}
	mock.SetEchoProbes(probes)

	fmt.Printf("Mock server listening at %s\n", mock.Endpoint())

	stopChan := make(chan bool)
	<-stopChan
}
