package middleware

import (
	"bytes"
	"compress/gzip"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-commerce/types"
	"github.com/saiset-co/sai-commerce/utils"
)

const (
	algorithmGzip   = "gzip"
	algorithmBrotli = "br"
)

// CompressionMiddleware compresses JSON responses above a size threshold.
// Brotli is preferred when the client accepts it, gzip otherwise.
type CompressionMiddleware struct {
	config            types.ConfigManager
	logger            types.Logger
	compressionConfig *CompressionConfig
	name              string
	weight            int
	gzipWriterPool    sync.Pool
	brotliWriterPool  sync.Pool
	bufferPool        sync.Pool
}

type CompressionConfig struct {
	Level        int      `json:"level"`
	Threshold    int      `json:"threshold"`
	AllowedTypes []string `json:"allowed_types"`
}

func NewCompressionMiddleware(config types.ConfigManager, logger types.Logger) *CompressionMiddleware {
	var compressionConfig = &CompressionConfig{
		Level:     6,
		Threshold: 1024,
		AllowedTypes: []string{
			"application/json",
			"text/*",
		},
	}

	if config.GetConfig().Middlewares.Compression.Params != nil {
		err := utils.UnmarshalConfig(config.GetConfig().Middlewares.Compression.Params, compressionConfig)
		if err != nil {
			logger.Error("Failed to unmarshal Compression middleware config", zap.Error(err))
		}
	}

	cm := &CompressionMiddleware{
		name:              "compression",
		weight:            config.GetConfig().Middlewares.Compression.Weight,
		config:            config,
		logger:            logger,
		compressionConfig: compressionConfig,
	}

	cm.gzipWriterPool = sync.Pool{
		New: func() interface{} {
			writer, _ := gzip.NewWriterLevel(nil, compressionConfig.Level)
			return writer
		},
	}
	cm.brotliWriterPool = sync.Pool{
		New: func() interface{} {
			return brotli.NewWriterLevel(nil, compressionConfig.Level)
		},
	}
	cm.bufferPool = sync.Pool{
		New: func() interface{} {
			return bytes.NewBuffer(make([]byte, 0, 4096))
		},
	}

	return cm
}

func (c *CompressionMiddleware) Name() string { return c.name }
func (c *CompressionMiddleware) Weight() int  { return c.weight }

func (c *CompressionMiddleware) Handle(ctx *fasthttp.RequestCtx, next func(*fasthttp.RequestCtx), _ *types.RouteConfig) {
	next(ctx)

	if len(ctx.Response.Header.Peek("Content-Encoding")) > 0 {
		return
	}

	algorithm := c.pickAlgorithm(ctx.Request.Header.Peek("Accept-Encoding"))
	if algorithm == "" {
		return
	}

	if !c.shouldCompress(ctx.Response.Header.Peek("Content-Type")) {
		return
	}

	body := ctx.Response.Body()
	if len(body) < c.compressionConfig.Threshold {
		return
	}

	compressed, err := c.compress(body, algorithm)
	if err != nil {
		c.logger.Error("Failed to compress response", zap.Error(err))
		return
	}

	if len(compressed) >= len(body) {
		return
	}

	ctx.Response.Header.SetContentEncoding(algorithm)
	ctx.Response.Header.Add("Vary", "Accept-Encoding")
	ctx.Response.SetBody(compressed)
}

func (c *CompressionMiddleware) pickAlgorithm(acceptEncoding []byte) string {
	if bytes.Contains(acceptEncoding, []byte(algorithmBrotli)) {
		return algorithmBrotli
	}
	if bytes.Contains(acceptEncoding, []byte(algorithmGzip)) {
		return algorithmGzip
	}
	return ""
}

func (c *CompressionMiddleware) shouldCompress(contentType []byte) bool {
	ct := string(contentType)
	if semicolon := strings.Index(ct, ";"); semicolon != -1 {
		ct = ct[:semicolon]
	}
	ct = strings.TrimSpace(strings.ToLower(ct))

	for _, allowed := range c.compressionConfig.AllowedTypes {
		if allowed == ct {
			return true
		}
		if strings.HasSuffix(allowed, "*") && strings.HasPrefix(ct, strings.TrimSuffix(allowed, "*")) {
			return true
		}
	}
	return false
}

func (c *CompressionMiddleware) compress(data []byte, algorithm string) ([]byte, error) {
	buf := c.bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer c.bufferPool.Put(buf)

	switch algorithm {
	case algorithmBrotli:
		writer := c.brotliWriterPool.Get().(*brotli.Writer)
		writer.Reset(buf)
		defer c.brotliWriterPool.Put(writer)

		if _, err := writer.Write(data); err != nil {
			return nil, err
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}
	default:
		writer := c.gzipWriterPool.Get().(*gzip.Writer)
		writer.Reset(buf)
		defer c.gzipWriterPool.Put(writer)

		if _, err := writer.Write(data); err != nil {
			return nil, err
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}
	}

	return append([]byte(nil), buf.Bytes()...), nil
}
