/*
 * amigoemu - Command-line entry point.
 *
 * Copyright 2026, Amigo Drive Emulator Contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"fmt"
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/hpamigo/amigoemu/amigo"
	"github.com/hpamigo/amigoemu/ieee488"
	"github.com/hpamigo/amigoemu/image"
	"github.com/hpamigo/amigoemu/model"
	"github.com/hpamigo/amigoemu/peer"
	"github.com/hpamigo/amigoemu/util/debug"
	"github.com/hpamigo/amigoemu/util/logger"
	"github.com/hpamigo/amigoemu/wire"
)

func main() {
	optPort := getopt.StringLong("port", 'p', ":1234", "TCP address to accept the remotizer peer on")
	optAddr := getopt.IntLong("addr", 'a', 0, "IEEE-488 primary address of this drive")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optDebug := getopt.BoolLong("debug", 'd', "Log debug detail to console")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.SetParameters("model [image ...]")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	args := getopt.Args()
	if len(args) < 1 {
		getopt.Usage()
		os.Exit(1)
	}

	var file *os.File
	if *optLogFile != "" {
		var err error
		file, err = os.Create(*optLogFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	level := new(slog.LevelVar)
	level.Set(slog.LevelDebug)
	log := slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: level}, *optDebug))
	slog.SetDefault(log)

	fixed, err := model.Lookup(args[0])
	if err != nil {
		log.Error("unknown model", "model", args[0])
		os.Exit(1)
	}

	var images []image.Image
	for _, path := range args[1:] {
		img, err := image.Open(path)
		if err != nil {
			log.Error("open image", "path", path, "err", err)
			os.Exit(1)
		}
		images = append(images, img)
	}

	log.Info("waiting for remotizer peer", "port", *optPort)
	conn, err := peer.Accept(*optPort)
	if err != nil {
		log.Error("accept peer", "err", err)
		os.Exit(1)
	}
	defer conn.Close()
	log.Info("peer connected", "remote", conn.RemoteAddr())

	debugMask := 0
	if *optDebug {
		debugMask = debug.Frame | debug.Bus | debug.Amigo | debug.Unit
	}

	link := wire.New(conn)
	link.DebugMask = debugMask
	link.Start()

	drv := amigo.NewDrive(fixed, images, link)
	drv.DebugMask = debugMask

	dec := ieee488.NewDecoder(byte(*optAddr), func(raw ieee488.RawCommand) {
		drv.Execute(amigo.Decode(raw))
	})
	dec.DebugMask = debugMask

	for {
		m, err := link.Get()
		if err != nil {
			log.Info("peer disconnected")
			break
		}
		dec.Handle(m)
	}

	link.Wait()
}
