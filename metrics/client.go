package metrics

import (
	"bytes"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/volcengine/apminsight-profiling-demo/logger"
)

var ErrClientClosed = errors.New("metrics client closed")

type Client struct {
	config Config
	logger logger.Logger

	dataBuf chan *[]metricItem

	batchBuf  *[]metricItem
	batchLock sync.Mutex
	closed    bool

	bufferFull  int64
	formatError int64

	flusherStop chan struct{}
	flusherWg   sync.WaitGroup
	senderWg    sync.WaitGroup
}

func NewClient(options ...ClientOption) *Client {
	config := Config{
		flushInterval: flushInterval,
	}
	for _, opt := range options {
		opt(&config)
	}
	return &Client{
		config:      config,
		logger:      logger.OrNoop(config.logger),
		dataBuf:     make(chan *[]metricItem, asyncChannelSize),
		batchBuf:    getMetricItems(),
		flusherStop: make(chan struct{}),
	}
}

func (mc *Client) Start() {
	mc.flusherWg.Add(1)
	go func() {
		defer mc.flusherWg.Done()
		mc.batchFlushLoop()
	}()

	mc.senderWg.Add(1)
	go func() {
		defer mc.senderWg.Done()
		mc.sendLoop()
	}()
}

// Close flushes what is buffered and waits for it to be written.
func (mc *Client) Close() {
	mc.batchLock.Lock()
	if mc.closed {
		mc.batchLock.Unlock()
		return
	}
	mc.closed = true
	mc.batchLock.Unlock()

	close(mc.flusherStop)
	mc.flusherWg.Wait()

	close(mc.dataBuf)
	mc.senderWg.Wait()

	if n := atomic.LoadInt64(&mc.bufferFull); n != 0 {
		mc.logger.Error("[metrics.Close] dropped %d batches, buffer full", n)
	}
	if n := atomic.LoadInt64(&mc.formatError); n != 0 {
		mc.logger.Error("[metrics.Close] %d items failed to format", n)
	}
}

func (mc *Client) EmitCounter(name string, value float64, tags map[string]string) error {
	return mc.emitMetric(mtCounter, name, value, tags)
}

func (mc *Client) EmitTimer(name string, value float64, tags map[string]string) error {
	return mc.emitMetric(mtTimer, name, value, tags)
}

func (mc *Client) EmitGauge(name string, value float64, tags map[string]string) error {
	return mc.emitMetric(mtGauge, name, value, tags)
}

func (mc *Client) emitMetric(mt uint8, name string, value float64, tags map[string]string) error {
	item := metricItem{
		mt:    mt,
		name:  name,
		value: value,
	}
	if len(tags) != 0 {
		item.tags = make([]tag, 0, len(tags))
		for k, v := range tags {
			item.tags = append(item.tags, tag{key: k, value: v})
		}
		sort.Slice(item.tags, func(i, j int) bool { return item.tags[i].key < item.tags[j].key })
	}

	mc.batchLock.Lock()
	defer mc.batchLock.Unlock()
	if mc.closed {
		return ErrClientClosed
	}
	*mc.batchBuf = append(*mc.batchBuf, item)
	if len(*mc.batchBuf) < batchSize {
		return nil
	}
	// non-blocking, and under the lock so Close cannot close dataBuf in between
	select {
	case mc.dataBuf <- mc.batchBuf:
		mc.batchBuf = getMetricItems()
	default:
		atomic.AddInt64(&mc.bufferFull, 1)
		*mc.batchBuf = (*mc.batchBuf)[:0]
	}
	return nil
}

func (mc *Client) batchFlushLoop() {
	ticker := time.NewTicker(mc.config.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			mc.batchFlush()
		case <-mc.flusherStop:
			mc.batchFlush()
			return
		}
	}
}

func (mc *Client) batchFlush() {
	var flushBatch *[]metricItem
	mc.batchLock.Lock()
	if len(*mc.batchBuf) != 0 {
		flushBatch = mc.batchBuf
		mc.batchBuf = getMetricItems()
	}
	mc.batchLock.Unlock()
	if flushBatch != nil {
		mc.dataBuf <- flushBatch
	}
}

// sendLoop packs formatted items into datagrams of at most maxPacketSize bytes.
func (mc *Client) sendLoop() {
	s := newSender(mc.config.address, mc.logger)
	defer s.Close()

	packetBuf := make([]byte, 0, maxPacketSize)
	itemBuf := bytes.NewBuffer(nil)

	for items := range mc.dataBuf {
		for _, item := range *items {
			itemBuf.Reset()
			if err := formatCommon(itemBuf, item.mt, mc.config.prefix, item.name, item.value, item.tags); err != nil {
				atomic.AddInt64(&mc.formatError, 1)
				continue
			}
			data := itemBuf.Bytes()
			if len(packetBuf) != 0 && len(packetBuf)+len(data) > maxPacketSize {
				s.SendPacket(packetBuf)
				packetBuf = packetBuf[:0]
			}
			packetBuf = append(packetBuf, data...)
		}
		putMetricItems(items)
		if len(packetBuf) != 0 {
			s.SendPacket(packetBuf)
			packetBuf = packetBuf[:0]
		}
	}
}
