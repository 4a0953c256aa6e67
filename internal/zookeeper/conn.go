// internal/zookeeper/conn.go
package zookeeper

import (
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
)

// Conn 是对 zk.Conn 的薄封装，统一在这里管理会话。
type Conn struct {
	*zk.Conn
}

// Connect 建立到 ZooKeeper 集群的会话。
// servers 格式为 "host1:2181,host2:2181"。
func Connect(servers string, sessionTimeout time.Duration) (*Conn, error) {
	if sessionTimeout <= 0 {
		sessionTimeout = 10 * time.Second
	}
	conn, _, err := zk.Connect(strings.Split(servers, ","), sessionTimeout)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: conn}, nil
}

// Close 关闭会话，所有临时节点（包括未释放的锁）随之消失。
func (c *Conn) Close() {
	c.Conn.Close()
}
