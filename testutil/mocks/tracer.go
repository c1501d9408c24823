// MockTracer 与 MockPipeline 的链路追踪测试模拟实现。
//
// 统计 Start / SetAttributes / SetStatus / End 调用，支持注册错误注入。
package mocks

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// --- MockSpan ---

// MockSpan 记录一次 span 生命周期中的调用
type MockSpan struct {
	noop.Span

	mu             sync.Mutex
	name           string
	attrs          map[attribute.Key]attribute.Value
	attributeCalls int
	statusCode     codes.Code
	statusDesc     string
	endCount       int
}

// SetAttributes 记录属性
func (s *MockSpan) SetAttributes(kv ...attribute.KeyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attributeCalls++
	for _, a := range kv {
		s.attrs[a.Key] = a.Value
	}
}

// SetStatus 记录状态
func (s *MockSpan) SetStatus(code codes.Code, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusCode = code
	s.statusDesc = description
}

// End 统计结束次数
func (s *MockSpan) End(...trace.SpanEndOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endCount++
}

// Name 返回 span 名称
func (s *MockSpan) Name() string {
	return s.name
}

// Attribute 返回指定键的属性值
func (s *MockSpan) Attribute(key string) (attribute.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.attrs[attribute.Key(key)]
	return v, ok
}

// AttributeCalls 返回 SetAttributes 调用次数
func (s *MockSpan) AttributeCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attributeCalls
}

// Status 返回最后设置的状态
func (s *MockSpan) Status() (codes.Code, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusCode, s.statusDesc
}

// EndCount 返回 End 调用次数
func (s *MockSpan) EndCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endCount
}

// --- MockTracer ---

// MockTracer 创建并保存 MockSpan
type MockTracer struct {
	noop.Tracer

	mu    sync.Mutex
	spans []*MockSpan
}

// NewMockTracer 创建新的 MockTracer
func NewMockTracer() *MockTracer {
	return &MockTracer{}
}

// Start 创建 MockSpan
func (t *MockTracer) Start(ctx context.Context, name string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
	span := &MockSpan{name: name, attrs: make(map[attribute.Key]attribute.Value)}
	t.mu.Lock()
	t.spans = append(t.spans, span)
	t.mu.Unlock()
	return trace.ContextWithSpan(ctx, span), span
}

// Spans 返回已创建的 span 快照
func (t *MockTracer) Spans() []*MockSpan {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*MockSpan, len(t.spans))
	copy(out, t.spans)
	return out
}

// StartCount 返回 Start 调用次数
func (t *MockTracer) StartCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.spans)
}

// EndCount 返回所有 span 的 End 调用总次数
func (t *MockTracer) EndCount() int {
	total := 0
	for _, s := range t.Spans() {
		total += s.EndCount()
	}
	return total
}

// AttributeCalls 返回所有 span 的 SetAttributes 调用总次数
func (t *MockTracer) AttributeCalls() int {
	total := 0
	for _, s := range t.Spans() {
		total += s.AttributeCalls()
	}
	return total
}

// --- MockPipeline ---

// MockPipeline 是导出管线的模拟实现，总是返回同一个 MockTracer
type MockPipeline struct {
	mu sync.Mutex

	tracer        *MockTracer
	meter         metric.Meter
	registerErr   error
	registerCalls int
	shutdownCalls int
}

// NewMockPipeline 创建新的 MockPipeline
func NewMockPipeline(tracer *MockTracer) *MockPipeline {
	if tracer == nil {
		tracer = NewMockTracer()
	}
	return &MockPipeline{tracer: tracer}
}

// WithRegisterError 设置 Register 返回的错误
func (p *MockPipeline) WithRegisterError(err error) *MockPipeline {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registerErr = err
	return p
}

// WithMeter 设置 Meter 返回值
func (p *MockPipeline) WithMeter(m metric.Meter) *MockPipeline {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.meter = m
	return p
}

// Tracer 返回 MockTracer
func (p *MockPipeline) Tracer(string) trace.Tracer {
	return p.tracer
}

// Meter 返回注入的 meter，默认为 nil
func (p *MockPipeline) Meter(string) metric.Meter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.meter
}

// Register 统计注册次数
func (p *MockPipeline) Register() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registerCalls++
	return p.registerErr
}

// Shutdown 统计关闭次数
func (p *MockPipeline) Shutdown(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdownCalls++
	return nil
}

// RegisterCalls 返回 Register 调用次数
func (p *MockPipeline) RegisterCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.registerCalls
}

// ShutdownCalls 返回 Shutdown 调用次数
func (p *MockPipeline) ShutdownCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shutdownCalls
}
