// This implements a long-running service over stdin/stdout so a host compiler
// can rewrite many modules without starting a process for each one. Requests
// are handled concurrently. Responses may arrive in any order and are matched
// to their request by id.
//
// Every request is a map with a "command" key:
//
//   {command: "ping"}
//   {command: "transform", tree: bytes, flags: [string], source?: string}
//
// Transform responses contain "errors" and "warnings" arrays and either a
// "tree" or a "js" byte slice. A request that can't be handled at all gets a
// response with an "error" string instead.

package main

import (
	"fmt"
	"io"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/asyncrequire/asyncrequire/pkg/api"
	"github.com/asyncrequire/asyncrequire/pkg/cli"
)

type serviceType struct {
	log              *zap.Logger
	outgoingPackets  chan []byte
	requestWaitGroup sync.WaitGroup
}

func runService(in io.Reader, out io.Writer, log *zap.Logger) error {
	service := serviceType{
		log:             log,
		outgoingPackets: make(chan []byte),
	}
	buffer := make([]byte, 16*1024)
	stream := []byte{}

	// Write packets on a single goroutine so they aren't interleaved
	writerDone := make(chan struct{})
	var writeErr error
	go func() {
		defer close(writerDone)
		for bytes := range service.outgoingPackets {
			if writeErr == nil {
				if _, err := out.Write(bytes); err != nil {
					writeErr = err
					log.Error("Failed to write response", zap.Error(err))
				}
			}

			// Only signal that this request is done when it has actually been written
			service.requestWaitGroup.Done()
		}
	}()

	log.Info("Service started", zap.String("version", asyncrequireVersion))

	var readErr error
	for {
		// Read more data from stdin
		n, err := in.Read(buffer)
		stream = append(stream, buffer[:n]...)

		// Process all complete (i.e. not partial) packets
		bytes := stream
		for {
			packet, afterPacket, ok := readLengthPrefixedSlice(bytes)
			if !ok {
				break
			}
			bytes = afterPacket

			// Clone the input and run it on another goroutine
			service.requestWaitGroup.Add(1)
			clone := append([]byte{}, packet...)
			go service.handleIncomingPacket(clone)
		}

		// Move the remaining partial packet to the start to avoid reallocating
		stream = append(stream[:0], bytes...)

		if err == io.EOF {
			break // End of stdin
		}
		if err != nil {
			readErr = err
			break
		}
	}

	if len(stream) != 0 {
		log.Warn("Ignoring a partial packet at the end of the input", zap.Int("bytes", len(stream)))
	}

	// Wait for the last response to be written to stdout
	service.requestWaitGroup.Wait()
	close(service.outgoingPackets)
	<-writerDone

	log.Info("Service stopped")
	if readErr != nil {
		return readErr
	}
	return writeErr
}

func (service *serviceType) sendResponse(id uint32, value map[string]interface{}) {
	service.outgoingPackets <- encodePacket(packet{
		id:    id,
		value: value,
	})
}

func (service *serviceType) handleIncomingPacket(bytes []byte) {
	p, ok := decodePacket(bytes)
	if !ok || !p.isRequest {
		service.log.Warn("Ignoring an invalid packet", zap.Int("bytes", len(bytes)))
		service.requestWaitGroup.Done()
		return
	}

	// Catch panics in the code below so they get passed to the caller
	defer func() {
		if r := recover(); r != nil {
			service.log.Error("Request panicked", zap.Uint32("id", p.id), zap.Any("panic", r))
			service.sendResponse(p.id, map[string]interface{}{
				"error": fmt.Sprintf("Panic: %v\n\n%s", r, debug.Stack()),
			})
		}
	}()

	request, ok := p.value.(map[string]interface{})
	if !ok {
		service.sendResponse(p.id, map[string]interface{}{
			"error": "Invalid request",
		})
		return
	}

	command, _ := request["command"].(string)
	start := time.Now()
	var response map[string]interface{}

	switch command {
	case "ping":
		response = map[string]interface{}{}

	case "transform":
		response = handleTransformRequest(request)

	default:
		response = map[string]interface{}{
			"error": fmt.Sprintf("Invalid command: %q", command),
		}
	}

	service.log.Debug("Handled request",
		zap.Uint32("id", p.id),
		zap.String("command", command),
		zap.Duration("elapsed", time.Since(start)))
	service.sendResponse(p.id, response)
}

func handleTransformRequest(request map[string]interface{}) map[string]interface{} {
	tree, ok := request["tree"].([]byte)
	if !ok {
		return map[string]interface{}{
			"error": "Invalid transform request: missing \"tree\"",
		}
	}

	var flags []string
	if rawFlags, ok := request["flags"].([]interface{}); ok {
		for _, flag := range rawFlags {
			str, ok := flag.(string)
			if !ok {
				return map[string]interface{}{
					"error": "Invalid transform request: every flag must be a string",
				}
			}
			flags = append(flags, str)
		}
	}

	options, err := cli.ParseTransformOptions(flags)
	if err != nil {
		return map[string]interface{}{
			"error": err.Error(),
		}
	}

	// Messages are returned to the host, never printed
	options.LogLevel = api.LogLevelSilent
	if source, ok := request["source"].(string); ok {
		options.Source = source
	}

	result := api.Transform(tree, options)
	response := map[string]interface{}{
		"errors":   encodeMessages(result.Errors),
		"warnings": encodeMessages(result.Warnings),
	}
	if result.Tree != nil {
		response["tree"] = result.Tree
	}
	if result.JS != nil {
		response["js"] = result.JS
	}
	return response
}

func encodeMessages(msgs []api.Message) []interface{} {
	values := []interface{}{}
	for _, msg := range msgs {
		var location interface{}
		if loc := msg.Location; loc != nil {
			location = map[string]interface{}{
				"file":     loc.File,
				"line":     loc.Line,
				"column":   loc.Column,
				"length":   loc.Length,
				"lineText": loc.LineText,
			}
		}
		values = append(values, map[string]interface{}{
			"id":       msg.ID,
			"text":     msg.Text,
			"location": location,
		})
	}
	return values
}
