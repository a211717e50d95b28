// Command recordkit runs the record extraction analyses and rule files from
// the command line.
package main

func main() {
	Execute()
}
