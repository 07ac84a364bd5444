package sigchan

// Chan 非阻塞的合并信号 channel：多次 Emit 在被消费前只保留一次
type Chan struct {
	c chan struct{}
}

// New 创建信号 channel
func New() *Chan {
	return &Chan{c: make(chan struct{}, 1)}
}

// Emit 发送信号（非阻塞）
func (c *Chan) Emit() {
	select {
	case c.c <- struct{}{}:
	default:
	}
}

// C 用于 select 的只读 channel
func (c *Chan) C() <-chan struct{} {
	return c.c
}
