package metrics

import (
	"net"

	"github.com/volcengine/apminsight-profiling-demo/logger"
)

type sender struct {
	address string
	conn    net.Conn
	logger  logger.Logger
}

func newSender(address string, l logger.Logger) *sender {
	return &sender{
		address: address,
		logger:  l,
	}
}

// SendPacket dials lazily and drops the connection on write errors so the next packet redials.
func (s *sender) SendPacket(packet []byte) {
	if s.conn == nil {
		conn, err := net.Dial("unixgram", s.address)
		if err != nil {
			s.logger.Debug("[metrics.sender] dial address %s err %v", s.address, err)
			return
		}
		s.conn = conn
	}
	if _, err := s.conn.Write(packet); err != nil {
		s.logger.Debug("[metrics.sender] write packet %d bytes err %v", len(packet), err)
		s.conn.Close()
		s.conn = nil
	}
}

func (s *sender) Close() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}
