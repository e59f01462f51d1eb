// Package callback 为 Eino ChatModel 调用注册链路追踪回调
package callback

import (
	"sync"

	einocallbacks "github.com/cloudwego/eino/callbacks"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
)

var (
	registerOnce sync.Once
	global       einocallbacks.Handler
)

// Init 在进程启动时注册一次全局回调，重复调用无副作用
func Init() {
	registerOnce.Do(func() {
		global = Handler()
		einocallbacks.AppendGlobalHandlers(global)
	})
}

// Handler 返回只关注 ChatModel 组件的回调，其余组件不产生 span
func Handler() einocallbacks.Handler {
	return cbtemplate.NewHandlerHelper().
		ChatModel(newChatModelCallbackHandler()).
		Handler()
}
