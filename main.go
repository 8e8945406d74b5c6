/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/emodiary/apiserver/cmd"

func main() {
	cmd.Execute()
}
