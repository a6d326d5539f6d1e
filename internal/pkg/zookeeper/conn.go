// Package zookeeper 提供基于临时顺序节点的分布式锁。
package zookeeper

import (
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/pkg/errors"
)

// Conn 是对 zk.Conn 的轻量封装，只暴露锁需要的操作。
type Conn struct {
	*zk.Conn
}

// Connect 建立会话并等待首次连接成功。
func Connect(servers []string, sessionTimeout time.Duration) (*Conn, error) {
	if len(servers) == 0 {
		return nil, errors.New("zookeeper: no servers configured")
	}
	conn, events, err := zk.Connect(servers, sessionTimeout, zk.WithLogInfo(false))
	if err != nil {
		return nil, errors.Wrap(err, "zookeeper connect")
	}

	timeout := time.After(sessionTimeout)
	for {
		select {
		case ev := <-events:
			if ev.State == zk.StateHasSession {
				return &Conn{Conn: conn}, nil
			}
		case <-timeout:
			conn.Close()
			return nil, errors.Errorf("zookeeper: no session established within %s", sessionTimeout)
		}
	}
}
