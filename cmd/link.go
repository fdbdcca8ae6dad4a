// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The Aviary Authors

package cmd

import (
	"fmt"
	"io"

	"github.com/aviary-gcs/aviary/pkg/skytalk"
	"github.com/aviary-gcs/aviary/pkg/uavobject"
)

// link bundles one open transport with its object registry and protocol
// connection. Commands share this setup and differ only in what they do
// with the decoded objects.
type link struct {
	conn io.ReadWriteCloser
	info string
	reg  *uavobject.Registry
	talk *skytalk.Connection
	done chan struct{}
}

// loadRegistry builds the object registry from --definitions or the
// built-in default set.
func loadRegistry() (*uavobject.Registry, error) {
	reg := uavobject.NewRegistry()
	defs := uavobject.DefaultDefinitions()
	if definitionsPath != "" {
		var err error
		defs, err = uavobject.LoadDefinitionsFile(definitionsPath)
		if err != nil {
			return nil, err
		}
	}
	if err := reg.RegisterAll(defs); err != nil {
		return nil, err
	}
	return reg, nil
}

// openLink opens the transport and wires a SkyTalk connection onto it.
func openLink() (*link, error) {
	reg, err := loadRegistry()
	if err != nil {
		return nil, err
	}

	conn, connInfo, err := openTransport()
	if err != nil {
		return nil, err
	}

	talk := skytalk.New(reg, func(p []byte) error {
		_, err := conn.Write(p)
		return err
	}, linkMTU)

	return &link{
		conn: conn,
		info: connInfo,
		reg:  reg,
		talk: talk,
		done: make(chan struct{}),
	}, nil
}

// startReader drains the transport into the protocol decoder until the
// connection fails or the link closes. Read errors land on the returned
// channel.
func (l *link) startReader() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		buf := make([]byte, 256)
		for {
			select {
			case <-l.done:
				return
			default:
			}

			n, err := l.conn.Read(buf)
			if err != nil {
				errCh <- err
				return
			}
			for i := 0; i < n; i++ {
				l.talk.ProcessByte(buf[i])
			}
		}
	}()
	return errCh
}

func (l *link) close() {
	close(l.done)
	l.conn.Close()
}

// resolveObject turns a command-line object argument (name or hex/decimal
// ID) into its definition.
func (l *link) resolveObject(arg string) (*uavobject.Definition, error) {
	if def, ok := l.reg.DefinitionByName(arg); ok {
		return def, nil
	}
	var id uint32
	if _, err := fmt.Sscanf(arg, "0x%x", &id); err != nil {
		if _, err := fmt.Sscanf(arg, "%d", &id); err != nil {
			return nil, fmt.Errorf("unknown object %q", arg)
		}
	}
	if def, ok := l.reg.Definition(id); ok {
		return def, nil
	}
	return nil, fmt.Errorf("unknown object %q", arg)
}
