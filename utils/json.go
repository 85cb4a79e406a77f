package utils

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"
)

type jsonBufferPool struct {
	pool sync.Pool
}

func (p *jsonBufferPool) Get() *bytes.Buffer {
	if buf := p.pool.Get(); buf != nil {
		return buf.(*bytes.Buffer)
	}
	return bytes.NewBuffer(make([]byte, 0, 1024))
}

func (p *jsonBufferPool) Put(buf *bytes.Buffer) {
	buf.Reset()
	if buf.Cap() < 16*1024 {
		p.pool.Put(buf)
	}
}

var jsonPool = &jsonBufferPool{}

func Marshal(data interface{}) ([]byte, error) {
	buf := jsonPool.Get()
	defer jsonPool.Put(buf)

	encoder := sonic.ConfigDefault.NewEncoder(buf)
	if err := encoder.Encode(data); err != nil {
		return nil, err
	}

	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

func Unmarshal(data []byte, target interface{}) error {
	return sonic.ConfigDefault.Unmarshal(data, target)
}

// UnmarshalConfig converts a loosely typed config subtree (or a document map)
// into a concrete struct by round-tripping through JSON.
func UnmarshalConfig[T any](config interface{}, target *T) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	if typed, ok := config.(*T); ok {
		*target = *typed
		return nil
	}

	configBytes, err := sonic.ConfigDefault.Marshal(config)
	if err != nil {
		return err
	}

	return sonic.ConfigDefault.Unmarshal(configBytes, target)
}

// DecodeDocument maps a raw store document onto a typed model.
func DecodeDocument[T any](doc map[string]interface{}) (T, error) {
	var out T
	err := UnmarshalConfig(doc, &out)
	return out, err
}

// EncodeDocument flattens a typed model back into a store document.
func EncodeDocument(v interface{}) (map[string]interface{}, error) {
	raw, err := sonic.ConfigDefault.Marshal(v)
	if err != nil {
		return nil, err
	}

	doc := make(map[string]interface{})
	if err := sonic.ConfigDefault.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	return doc, nil
}
