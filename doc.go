/*
s5upload (Simple Storage Service Static Site Uploader) keeps an S3 bucket in line with
a local static site.

Every run lists the bucket once and compares the MD5 of each local file with the ETag
of the object stored under the same key, so only new and changed files are uploaded.
Each upload gets a Cache-Control header taken from the first matching rule of an
ordered list of regular expressions. Once all uploads were attempted, the keys that
made it are invalidated in CloudFront, if a distribution is configured.

Files that were removed locally are never deleted from the bucket.

Configuration lives in s5upload.yml; run with -p to print the default one.
*/
package main
