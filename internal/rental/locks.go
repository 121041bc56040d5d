package rental

import "sync"

// carLocks 按车维度的互斥锁表。预订（检查 + 落库 + 翻标记）和
// 延迟恢复的条件写走同一把锁，两条路径的读-改-写互相串行。
type carLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func newCarLocks() *carLocks {
	return &carLocks{m: make(map[string]*sync.Mutex)}
}

func (l *carLocks) lockFor(carID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lock, ok := l.m[carID]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	l.m[carID] = lock
	return lock
}
