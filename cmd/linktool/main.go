// linktool 在命令行里把贺卡文档编码成分享链接，或把分享链接还原成文档。
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
