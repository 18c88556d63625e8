// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command add2server is a minimal mrpc server that registers a single
// procedure, add2, which sums the two big-endian int32 values packed into
// a call payload's blob.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"code.hybscloud.com/mrpc"
)

func main() {
	port := flag.Uint("port", 9000, "TCP port to listen on")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, "add2server: logger init:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	srv, err := mrpc.InitServer(uint16(*port), mrpc.WithServerLogger(logger))
	if err != nil {
		logger.Fatal("init server failed", zap.Error(err))
	}

	if err := srv.Register("add2", add2); err != nil {
		logger.Fatal("register add2 failed", zap.Error(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		if err := srv.Stop(); err != nil {
			logger.Error("stop failed", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.Uint("port", *port))
	if err := srv.ServeAll(); err != nil {
		logger.Fatal("serve failed", zap.Error(err))
	}
}

// add2 expects an 8-byte blob: two big-endian int32 operands. It responds
// with a 4-byte blob holding their big-endian int32 sum.
func add2(p *mrpc.Payload) *mrpc.Payload {
	if p == nil || len(p.Data2) != 8 {
		return &mrpc.Payload{Data1: -1}
	}
	a := int32(binary.BigEndian.Uint32(p.Data2[0:4]))
	b := int32(binary.BigEndian.Uint32(p.Data2[4:8]))

	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(a+b))
	return &mrpc.Payload{Data1: 0, Data2: out}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
