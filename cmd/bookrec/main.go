// Command bookrec 是推荐引擎的命令行入口：加载种子数据、生成推荐、查询相似书与用户统计。
package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bookrec:", err)
		os.Exit(1)
	}
}
