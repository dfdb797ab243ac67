// Command soapctl runs the order log parser and note merger offline over files.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
