package rxml_test

import (
	"fmt"
	"log"

	"github.com/hbakke/go-rxml"
)

func ExampleUnmarshal() {
	data := []byte(`<server host="example.org" port="8080" tls="true"/>`)

	type Server struct {
		Host string `rxml:"host"`
		Port int    `rxml:"port"`
		TLS  bool   `rxml:"tls"`
	}

	var s Server
	if err := rxml.Unmarshal(data, &s); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s:%d tls=%v\n", s.Host, s.Port, s.TLS)
	// Output: example.org:8080 tls=true
}

func ExampleParse() {
	tp, err := rxml.Parse(`<greeting lang="en">Hello World</greeting>`)
	if err != nil {
		log.Fatal(err)
	}

	name, _ := tp.TagName(0)
	content, _ := tp.Content(0)
	fmt.Println(name, "-", content)
	// Output: greeting - Hello World
}
