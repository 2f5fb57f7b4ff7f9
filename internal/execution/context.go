package execution

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// ErrUnknownKey — ключ не входит в закрытый набор Key.
var ErrUnknownKey = errors.New("unknown context key")

// Context — контекст выполнения одного run.
//
// Создаётся внешним sequencer'ом на каждый run и передаётся по ссылке
// во все шаги. Шаг читает только нужные ему ключи и дописывает результат.
// Ключ, записанный одним шагом, виден всем следующим шагам того же run.
//
// Значения: string, целые числа или непрозрачная структурированная запись.
// Приведение типов не гарантируется — читатель сам интерпретирует значение.
type Context struct {
	mu     sync.RWMutex
	values map[Key]any

	// outcome — записал ли текущий шаг результат (см. BeginStep).
	outcome bool
}

// New создаёт пустой контекст.
func New() *Context {
	return &Context{values: make(map[Key]any)}
}

// FromMap создаёт контекст из map с проверкой ключей.
func FromMap(m map[string]any) (*Context, error) {
	c := New()
	for k, v := range m {
		key, ok := ParseKey(k)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKey, k)
		}
		c.values[key] = v
	}
	return c, nil
}

// Get возвращает значение и признак наличия ключа.
func (c *Context) Get(key Key) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Set записывает значение.
func (c *Context) Set(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Delete удаляет ключ.
func (c *Context) Delete(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
}

// Has проверяет наличие ключа.
func (c *Context) Has(key Key) bool {
	_, ok := c.Get(key)
	return ok
}

// String возвращает строковое значение.
// ok=false, если ключа нет или значение не строка.
func (c *Context) String(key Key) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Text возвращает значение в текстовом виде.
//
// Строки возвращаются как есть, числа форматируются.
// Нужен для полей, которые разные писатели кладут то строкой, то числом
// (например ResponseCode после JSON).
func (c *Context) Text(key Key) (string, bool) {
	v, ok := c.Get(key)
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

// Int возвращает целое значение.
// Принимает int, int64, json.Number и целые float64.
func (c *Context) Int(key Key) (int, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
	}
	return 0, false
}

// Record возвращает структурированную запись (не строку и не число).
func (c *Context) Record(key Key) (any, bool) {
	v, ok := c.Get(key)
	if !ok || v == nil {
		return nil, false
	}
	switch v.(type) {
	case string, json.Number, int, int64, float64, bool:
		return nil, false
	}
	return v, true
}

// Keys возвращает отсортированный список ключей.
func (c *Context) Keys() []Key {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]Key, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Snapshot возвращает копию значений с ключами-строками.
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[string(k)] = v
	}
	return out
}

// BeginStep отмечает начало нового шага: результат ещё не записан.
func (c *Context) BeginStep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcome = false
}

// MarkOutcome отмечает, что шаг записал результат.
// Вызывается пакетом protocol.
func (c *Context) MarkOutcome() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcome = true
}

// HasOutcome возвращает true, если текущий шаг записал результат.
func (c *Context) HasOutcome() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.outcome
}

// MarshalJSON реализует json.Marshaler.
func (c *Context) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Snapshot())
}

// UnmarshalJSON реализует json.Unmarshaler.
// Числа декодируются как json.Number, неизвестные ключи — ошибка.
func (c *Context) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode context: %w", err)
	}

	parsed, err := FromMap(raw)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = parsed.values
	c.outcome = false
	return nil
}
