// Package yaml loads dialogue graphs from YAML documents at runtime.
//
//	language: en
//	reveal:
//	  delay: 30ms
//	  overrides:
//	    ".": 400ms
//	nodes:
//	  - id: intro
//	    lines: ["Hello.", "Welcome back."]
//	    children: [forest]
//	  - id: forest
//	    contents:
//	      - en: { descriptor: Guide, body: Trees everywhere. }
//	        pt: Árvores por toda parte.
package yaml
