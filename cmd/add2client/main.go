// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command add2client connects to an add2server, calls its add2 procedure
// with two integers taken from the command line, and prints the result.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"strconv"

	"code.hybscloud.com/mrpc"
)

func main() {
	addr := flag.String("addr", "::1", "server address")
	port := flag.Uint("port", 9000, "server port")
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: add2client [-addr host] [-port n] <a> <b>")
		os.Exit(2)
	}
	a, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		fmt.Fprintln(os.Stderr, "add2client: invalid operand a:", err)
		os.Exit(2)
	}
	b, err := strconv.ParseInt(args[1], 10, 32)
	if err != nil {
		fmt.Fprintln(os.Stderr, "add2client: invalid operand b:", err)
		os.Exit(2)
	}

	client, err := mrpc.InitClient(*addr, uint16(*port))
	if err != nil {
		fmt.Fprintln(os.Stderr, "add2client: connect failed:", err)
		os.Exit(1)
	}
	defer client.Close()

	handle, err := client.Find("add2")
	if err != nil {
		fmt.Fprintln(os.Stderr, "add2client: find failed:", err)
		os.Exit(1)
	}
	if handle == nil {
		fmt.Fprintln(os.Stderr, "add2client: server does not export add2")
		os.Exit(1)
	}

	blob := make([]byte, 8)
	binary.BigEndian.PutUint32(blob[0:4], uint32(int32(a)))
	binary.BigEndian.PutUint32(blob[4:8], uint32(int32(b)))

	resp, err := client.Call(handle, &mrpc.Payload{Data2: blob})
	if err != nil {
		fmt.Fprintln(os.Stderr, "add2client: call failed:", err)
		os.Exit(1)
	}
	if resp == nil || len(resp.Data2) != 4 {
		fmt.Fprintln(os.Stderr, "add2client: malformed response")
		os.Exit(1)
	}

	sum := int32(binary.BigEndian.Uint32(resp.Data2))
	fmt.Printf("%d + %d = %d\n", a, b, sum)
}
