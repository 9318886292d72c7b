/*
	Copyright NetFoundry Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package middleware

import (
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/xaction"
)

const (
	BrotliEncoding = "br"
	GzipEncoding   = "gzip"

	ContentEncodingHeader = "Content-Encoding"
	ContentLengthHeader   = "Content-Length"
	VaryHeader            = "Vary"

	DefaultMinSize     = 512
	DefaultBrotliLevel = 4
)

// CompressionOption configures NewCompressionHandler.
type CompressionOption func(config *compressionConfig)

type compressionConfig struct {
	minSize     int
	gzipLevel   int
	brotliLevel int
	encodings   []string
}

// WithMinSize sets the body size below which responses are sent uncompressed. 0 compresses every body.
func WithMinSize(minSize int) CompressionOption {
	return func(config *compressionConfig) {
		config.minSize = minSize
	}
}

func WithGzipLevel(level int) CompressionOption {
	return func(config *compressionConfig) {
		config.gzipLevel = level
	}
}

func WithBrotliLevel(level int) CompressionOption {
	return func(config *compressionConfig) {
		config.brotliLevel = level
	}
}

// WithEncodings restricts and orders the offered encodings. The order decides what a client sending
// "Accept-Encoding: *" receives.
func WithEncodings(encodings ...string) CompressionOption {
	return func(config *compressionConfig) {
		config.encodings = encodings
	}
}

type compressionHandler struct {
	next       http.Handler
	config     compressionConfig
	offers     []string
	brotliPool sync.Pool
	gzipPool   sync.Pool
}

// NewCompressionHandler wraps next with response compression negotiated from Accept-Encoding. The request's
// xaction.AcceptContext is parsed here and stored on the request context, so a downstream xaction.Registry reuses
// it. Requests without Accept-Encoding, HEAD requests, bodiless statuses and responses that already carry a
// Content-Encoding are passed through.
func NewCompressionHandler(next http.Handler, options ...CompressionOption) http.Handler {
	handler := &compressionHandler{
		next: next,
		config: compressionConfig{
			minSize:     DefaultMinSize,
			gzipLevel:   gzip.DefaultCompression,
			brotliLevel: DefaultBrotliLevel,
			encodings:   []string{BrotliEncoding, GzipEncoding},
		},
	}

	for _, option := range options {
		option(&handler.config)
	}

	handler.offers = append(append([]string{}, handler.config.encodings...), xaction.IdentityEncoding)

	brotliLevel := handler.config.brotliLevel
	handler.brotliPool.New = func() interface{} {
		return brotli.NewWriterLevel(nil, brotliLevel)
	}

	gzipLevel := handler.config.gzipLevel
	handler.gzipPool.New = func() interface{} {
		writer, err := gzip.NewWriterLevel(nil, gzipLevel)
		if err != nil {
			pfxlog.Logger().Warnf("invalid gzip level %d, using default: %v", gzipLevel, err)
			writer = gzip.NewWriter(nil)
		}
		return writer
	}

	return handler
}

func (handler *compressionHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	accept := xaction.AcceptContextFromRequest(request)
	request = request.WithContext(xaction.WithAcceptContext(request.Context(), accept))

	writer.Header().Add(VaryHeader, xaction.AcceptEncodingHeader)

	if request.Method == http.MethodHead || len(accept.Encodings()) == 0 {
		handler.next.ServeHTTP(writer, request)
		return
	}

	encoding := accept.NegotiateEncoding(handler.offers...)
	if encoding == "" || encoding == xaction.IdentityEncoding {
		handler.next.ServeHTTP(writer, request)
		return
	}

	compressWriter := &compressWriter{
		ResponseWriter: writer,
		handler:        handler,
		encoding:       encoding,
		status:         http.StatusOK,
	}

	defer func() {
		if err := compressWriter.Close(); err != nil {
			pfxlog.Logger().WithError(err).Debugf("could not finish %s response for %s", encoding, request.URL.Path)
		}
	}()

	handler.next.ServeHTTP(compressWriter, request)
}

// compressWriter buffers up to minSize bytes before deciding whether to compress.
type compressWriter struct {
	http.ResponseWriter
	handler  *compressionHandler
	encoding string

	status      int
	wroteHeader bool
	sentHeader  bool
	decided     bool
	compress    bool
	buffer      []byte
	writer      io.WriteCloser
}

func (cw *compressWriter) WriteHeader(status int) {
	if cw.wroteHeader {
		return
	}
	cw.wroteHeader = true
	cw.status = status

	if skipStatus(status) || cw.Header().Get(ContentEncodingHeader) != "" || skipContentType(cw.Header().Get(xaction.ContentTypeHeader)) {
		cw.passthrough()
	}
}

func (cw *compressWriter) Write(data []byte) (int, error) {
	if !cw.wroteHeader {
		cw.WriteHeader(http.StatusOK)
	}

	if cw.decided {
		if cw.compress {
			return cw.writer.Write(data)
		}
		return cw.ResponseWriter.Write(data)
	}

	cw.buffer = append(cw.buffer, data...)
	if len(cw.buffer) >= cw.handler.config.minSize {
		cw.startCompression()
		if err := cw.flushBuffer(cw.writer); err != nil {
			return 0, err
		}
	}

	return len(data), nil
}

// Flush decides on compression with what has been buffered so far and flushes every layer.
func (cw *compressWriter) Flush() {
	if !cw.decided {
		if len(cw.buffer) >= cw.handler.config.minSize && len(cw.buffer) > 0 {
			cw.startCompression()
			_ = cw.flushBuffer(cw.writer)
		} else {
			cw.passthrough()
			_ = cw.flushBuffer(cw.ResponseWriter)
		}
	}

	if cw.compress {
		if flusher, ok := cw.writer.(interface{ Flush() error }); ok {
			_ = flusher.Flush()
		}
	}

	if flusher, ok := cw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (cw *compressWriter) passthrough() {
	cw.decided = true
	cw.compress = false
	cw.sendHeader()
}

func (cw *compressWriter) startCompression() {
	cw.decided = true
	cw.compress = true

	header := cw.Header()
	header.Del(ContentLengthHeader)
	header.Set(ContentEncodingHeader, cw.encoding)
	cw.sendHeader()

	switch cw.encoding {
	case BrotliEncoding:
		writer := cw.handler.brotliPool.Get().(*brotli.Writer)
		writer.Reset(cw.ResponseWriter)
		cw.writer = writer
	default:
		writer := cw.handler.gzipPool.Get().(*gzip.Writer)
		writer.Reset(cw.ResponseWriter)
		cw.writer = writer
	}
}

func (cw *compressWriter) sendHeader() {
	if !cw.sentHeader {
		cw.sentHeader = true
		cw.ResponseWriter.WriteHeader(cw.status)
	}
}

func (cw *compressWriter) flushBuffer(writer io.Writer) error {
	if len(cw.buffer) == 0 {
		return nil
	}
	_, err := writer.Write(cw.buffer)
	cw.buffer = nil
	return err
}

// Close writes out a body that never reached minSize, or finishes the compressed stream and returns the
// compressor to its pool.
func (cw *compressWriter) Close() error {
	if !cw.decided {
		if !cw.wroteHeader && len(cw.buffer) == 0 {
			// the handler wrote nothing at all, leave the response to the server
			return nil
		}
		cw.passthrough()
		return cw.flushBuffer(cw.ResponseWriter)
	}

	if !cw.compress || cw.writer == nil {
		return nil
	}

	err := cw.writer.Close()

	switch writer := cw.writer.(type) {
	case *brotli.Writer:
		writer.Reset(nil)
		cw.handler.brotliPool.Put(writer)
	case *gzip.Writer:
		writer.Reset(nil)
		cw.handler.gzipPool.Put(writer)
	}
	cw.writer = nil

	return err
}

func skipStatus(status int) bool {
	return status < http.StatusOK ||
		status == http.StatusNoContent ||
		status == http.StatusPartialContent ||
		status == http.StatusNotModified
}

func skipContentType(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.HasPrefix(contentType, "text/event-stream") ||
		strings.HasPrefix(contentType, "application/octet-stream") ||
		strings.HasPrefix(contentType, "image/") ||
		strings.HasPrefix(contentType, "video/")
}
