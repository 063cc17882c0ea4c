package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lgc202/borders-go/config"
)

// 示例 borders.yaml：
//
//	public_key: <64 位>
//	private_key: <64 位>
//	secure: true
//	timeout: 30
//	rate_limit:
//	  rps: 5
//	  burst: 2
//
// 环境变量同样生效，例如 BORDERS_TIMEOUT=45、BORDERS_TRANSPORT_PROXY=http://127.0.0.1:3128
func main() {
	cfg, err := config.LoadSettings("./borders.yaml", config.WithWatch[config.Settings]())
	if err != nil {
		log.Fatal(err)
	}

	s := cfg.Get()
	client, err := s.NewClient()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("host: %s secure: %v timeout: %ds\n", client.Host(), client.IsSecure(), client.Timeout())

	// secure 和 timeout 可热更新，其余变更需要重建客户端
	cfg.OnChange(func(old, new config.Settings) {
		new.Apply(client)
		log.Printf("[Client] secure: %v -> %v, timeout: %d -> %d", old.Secure, new.Secure, old.Timeout, new.Timeout)
		if config.Changed(old.Transport, new.Transport) || old.Host != new.Host {
			log.Printf("[Client] host/transport 变更需要重启生效")
		}
	})
	cfg.OnError(func(err error) {
		log.Printf("[Config] 重新加载失败，保留旧配置: %v", err)
	})

	fmt.Println("\n修改 borders.yaml 将触发回调，Ctrl+C 退出")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}
